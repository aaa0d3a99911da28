package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/inkwellapp/inkwell-server/internal/util"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query  string   // User's search query
	Types  []string // Document types to include (empty = all)
	Tags   []string // Tag filter, OR across tags; normalized to slugs
	Author string   // Restrict posts to this username

	Limit  int
	Offset int

	SortBy    string // "relevance", "recent", "popular"
	SortOrder string // "asc", "desc"

	IncludeFacets bool
	Highlight     bool
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:         20,
		SortBy:        "relevance",
		SortOrder:     "desc",
		IncludeFacets: true,
		Highlight:     true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []SearchHit  `json:"hits"`
	Facets SearchFacets `json:"facets,omitempty"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	ID         string            `json:"id"`
	Type       DocType           `json:"type"`
	EntityID   int64             `json:"entity_id"`
	Score      float64           `json:"score"`
	Name       string            `json:"name"`
	Author     string            `json:"author,omitempty"`
	FullName   string            `json:"full_name,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Likes      int               `json:"likes,omitempty"`
	Comments   int               `json:"comments,omitempty"`
	PostCount  int               `json:"post_count,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// SearchFacets contains facet counts.
type SearchFacets struct {
	Types []FacetCount `json:"types,omitempty"`
	Tags  []FacetCount `json:"tags,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(searchRequest, params)

	if params.IncludeFacets {
		searchRequest.AddFacet("type", bleve.NewFacetRequest("type", 5))
		searchRequest.AddFacet("tags", bleve.NewFacetRequest("tags", 20))
	}

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("name")
		searchRequest.Highlight.AddField("content")
	}

	searchRequest.Fields = []string{
		"type", "entity_id", "name", "author", "full_name",
		"tags", "likes", "comments", "post_count",
	}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		h := SearchHit{
			ID:        hit.ID,
			Score:     hit.Score,
			Type:      DocType(stringField(hit.Fields, "type")),
			EntityID:  int64(numberField(hit.Fields, "entity_id")),
			Name:      stringField(hit.Fields, "name"),
			Author:    stringField(hit.Fields, "author"),
			FullName:  stringField(hit.Fields, "full_name"),
			Tags:      stringsField(hit.Fields, "tags"),
			Likes:     int(numberField(hit.Fields, "likes")),
			Comments:  int(numberField(hit.Fields, "comments")),
			PostCount: int(numberField(hit.Fields, "post_count")),
		}

		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, h)
	}

	if params.IncludeFacets {
		result.Facets = extractFacets(searchResult)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		nameMatch := bleve.NewMatchQuery(q)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)

		contentMatch := bleve.NewMatchQuery(q)
		contentMatch.SetField("content")

		authorMatch := bleve.NewMatchQuery(q)
		authorMatch.SetField("author")
		authorMatch.SetBoost(1.5)

		fullNameMatch := bleve.NewMatchQuery(q)
		fullNameMatch.SetField("full_name")

		tagMatch := bleve.NewTermQuery(util.NormalizeTagSlug(q))
		tagMatch.SetField("tags")
		tagMatch.SetBoost(2.0)

		// Typo tolerance on titles and usernames
		fuzzyQuery := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("name")
		fuzzyQuery.SetBoost(0.8)

		textQueries := []query.Query{nameMatch, contentMatch, authorMatch, fullNameMatch, tagMatch, fuzzyQuery}

		// Prefix query for autocomplete (minimum 2 chars)
		if len(q) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(q))
			prefixQuery.SetField("name")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if len(params.Types) > 0 {
		typeQueries := make([]query.Query, len(params.Types))
		for i, t := range params.Types {
			tq := bleve.NewTermQuery(t)
			tq.SetField("type")
			typeQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(typeQueries...))
	}

	if len(params.Tags) > 0 {
		tagQueries := make([]query.Query, 0, len(params.Tags))
		for _, tag := range params.Tags {
			slug := util.NormalizeTagSlug(tag)
			if slug == "" {
				continue
			}
			tq := bleve.NewTermQuery(slug)
			tq.SetField("tags")
			tagQueries = append(tagQueries, tq)
		}
		if len(tagQueries) > 0 {
			queries = append(queries, bleve.NewDisjunctionQuery(tagQueries...))
		}
	}

	if params.Author != "" {
		aq := bleve.NewMatchPhraseQuery(params.Author)
		aq.SetField("author")
		queries = append(queries, aq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	asc := params.SortOrder == "asc"
	switch params.SortBy {
	case "recent":
		if asc {
			req.SortBy([]string{"created_at"})
		} else {
			req.SortBy([]string{"-created_at"})
		}
	case "popular":
		if asc {
			req.SortBy([]string{"likes", "comments"})
		} else {
			req.SortBy([]string{"-likes", "-comments"})
		}
	default:
		req.SortBy([]string{"-_score", "-created_at"})
	}
}

func extractFacets(result *bleve.SearchResult) SearchFacets {
	facets := SearchFacets{}

	if typeFacet, ok := result.Facets["type"]; ok && typeFacet.Terms != nil {
		for _, term := range typeFacet.Terms.Terms() {
			facets.Types = append(facets.Types, FacetCount{Value: term.Term, Count: term.Count})
		}
	}

	if tagFacet, ok := result.Facets["tags"]; ok && tagFacet.Terms != nil {
		for _, term := range tagFacet.Terms.Terms() {
			facets.Tags = append(facets.Tags, FacetCount{Value: term.Term, Count: term.Count})
		}
	}

	return facets
}

func stringField(fields map[string]interface{}, name string) string {
	s, _ := fields[name].(string)
	return s
}

func numberField(fields map[string]interface{}, name string) float64 {
	n, _ := fields[name].(float64)
	return n
}

// stringsField reads a stored array field. Bleve returns a bare string when
// the array held a single value.
func stringsField(fields map[string]interface{}, name string) []string {
	switch v := fields[name].(type) {
	case string:
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
