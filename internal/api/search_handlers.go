package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwellapp/inkwell-server/internal/search"
	"github.com/inkwellapp/inkwell-server/internal/service"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search",
		Description: "Ranked full-text search across posts and users",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for a ranked search.
type SearchInput struct {
	Query  string `query:"q" maxLength:"200" doc:"Search query; empty matches everything"`
	Types  string `query:"types" maxLength:"100" doc:"Comma-separated types to search (post,user). Omit for all."`
	Tags   string `query:"tags" maxLength:"200" doc:"Comma-separated tags; a post matches any of them"`
	Author string `query:"author" maxLength:"64" doc:"Restrict posts to this username"`
	Sort   string `query:"sort" enum:"relevance,recent,popular" default:"relevance" doc:"Result order"`
	Limit  int    `query:"limit" minimum:"0" maximum:"100" doc:"Max results (default 20)"`
	Offset int    `query:"offset" minimum:"0" doc:"Pagination offset"`
}

// SearchOutput wraps the search result for Huma.
type SearchOutput struct {
	Body *search.SearchResult
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	result, err := s.services.Search.Search(ctx, service.SearchRequest{
		Query:  input.Query,
		Types:  splitList(input.Types),
		Tags:   splitList(input.Tags),
		Author: strings.TrimSpace(input.Author),
		SortBy: input.Sort,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: result}, nil
}

// splitList parses a comma-separated query value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
