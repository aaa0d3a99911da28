package generate

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{APIKey: "test-key", BaseURL: server.URL}, slog.New(slog.DiscardHandler))
}

func TestClient_PlaceholderWithoutKey(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL}, slog.New(slog.DiscardHandler))
	assert.False(t, c.Configured())

	text, err := c.Generate(context.Background(), "Go generics")
	require.NoError(t, err)
	assert.Equal(t, PlaceholderText, text)
	assert.False(t, called)
}

func TestClient_Generate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"First paragraph."},{"text":" Second."}]},"finishReason":"STOP"}]}`))
	})

	text, err := c.Generate(context.Background(), "Go generics")
	require.NoError(t, err)

	assert.Equal(t, "First paragraph. Second.", text)
	assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	require.Len(t, gotBody.Contents, 1)
	require.Len(t, gotBody.Contents[0].Parts, 1)
	assert.Equal(t, Prompt("Go generics"), gotBody.Contents[0].Parts[0].Text)
}

func TestClient_GenerateConvertsHTML(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"<p>Hello <strong>world</strong></p>"}]}}]}`))
	})

	text, err := c.Generate(context.Background(), "html")
	require.NoError(t, err)
	assert.Equal(t, "Hello **world**", text)
}

func TestClient_GenerateErrors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    error
		wantMsg    string
	}{
		{
			name:       "rate limited",
			statusCode: http.StatusTooManyRequests,
			wantErr:    ErrRateLimited,
		},
		{
			name:       "server error",
			statusCode: http.StatusInternalServerError,
			wantErr:    ErrServer,
		},
		{
			name:       "bad key",
			statusCode: http.StatusBadRequest,
			body:       `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`,
			wantErr:    ErrBadRequest,
			wantMsg:    "API key not valid",
		},
		{
			name:       "no candidates",
			statusCode: http.StatusOK,
			body:       `{"candidates":[]}`,
			wantErr:    ErrEmptyResponse,
		},
		{
			name:       "blocked prompt",
			statusCode: http.StatusOK,
			body:       `{"promptFeedback":{"blockReason":"SAFETY"}}`,
			wantErr:    ErrBadRequest,
			wantMsg:    "SAFETY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				if tt.body != "" {
					_, _ = w.Write([]byte(tt.body))
				}
			})

			text, err := c.Generate(context.Background(), "topic")
			require.Error(t, err)
			assert.Empty(t, text)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestClient_GenerateHonorsContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Generate(ctx, "topic")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrompt(t *testing.T) {
	assert.Equal(t,
		`Generate a blog post of about 3-4 paragraphs based on the following topic: "the future of React". `+
			`The tone should be informative and engaging for a tech audience. Do not include a title, just the main content.`,
		Prompt("the future of React"))
}

func TestPrompt_TopicVerbatim(t *testing.T) {
	topic := "Why \"nil\" isn't\nalways nil"
	got := Prompt(topic)

	assert.Contains(t, got, `topic: "`+topic+`". `)
	assert.NotContains(t, got, `\"nil\"`)
	assert.NotContains(t, got, `\n`)
}

func TestHTMLToMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text unchanged", input: "Just text, a < b.", want: "Just text, a < b."},
		{name: "empty", input: "", want: ""},
		{name: "paragraphs", input: "<p>One</p><p>Two</p>", want: "One\n\nTwo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, htmlToMarkdown(tt.input))
		})
	}
}
