package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/search"
)

func TestSearch(t *testing.T) {
	ts := setupTestServer(t)
	alex := ts.signup(t, "alex")
	ts.createPost(t, alex, "Understanding channels")
	ts.createPost(t, alex, "Context cancellation")

	resp := ts.api.Get("/api/v1/search?q=channels&types=post")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	result := decode[search.SearchResult](t, resp).Data
	assert.Equal(t, "channels", result.Query)
	require.Equal(t, uint64(1), result.Total)
	assert.Equal(t, search.DocTypePost, result.Hits[0].Type)
	assert.Equal(t, int64(1), result.Hits[0].EntityID)

	resp = ts.api.Get("/api/v1/search?q=alex&types=user")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	result = decode[search.SearchResult](t, resp).Data
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, search.DocTypeUser, result.Hits[0].Type)

	resp = ts.api.Get("/api/v1/search?q=channels&sort=sideways")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"post", "user"}, splitList(" post, ,user "))
}
