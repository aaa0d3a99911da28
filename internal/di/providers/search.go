package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/inkwellapp/inkwell-server/internal/config"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/search"
	"github.com/inkwellapp/inkwell-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// ProvideSearchService provides the search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	bootstrap := do.MustInvoke[*Bootstrap](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(indexHandle.SearchIndex, bootstrap.Posts, bootstrap.Users, log.Logger), nil
}

// TriggerSearchReindexIfNeeded rebuilds the index in the background when it
// is empty but the blog is not, as after a mapping change or a lost index
// directory.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	searchService := do.MustInvoke[*service.SearchService](i)
	bootstrap := do.MustInvoke[*Bootstrap](i)
	log := do.MustInvoke[*logger.Logger](i)

	if searchService.DocumentCount() > 0 {
		return
	}
	if bootstrap.Posts.Len() == 0 && bootstrap.Users.Len() == 0 {
		return
	}

	log.Info("Search index is empty but the blog is not, triggering reindex",
		"post_count", bootstrap.Posts.Len(),
		"user_count", bootstrap.Users.Len(),
	)

	reindexLog := log.WithField("task", "initial_reindex")
	go func() {
		if err := searchService.Reindex(context.Background()); err != nil {
			reindexLog.WithError(err).Error("Initial search reindex failed")
			return
		}
		reindexLog.Info("Initial search reindex completed", "documents", searchService.DocumentCount())
	}()
}
