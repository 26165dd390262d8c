package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatServer returns an httptest server that answers every chat
// completion with the given content string.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestResolveSeries(t *testing.T) {
	srv := chatServer(t, `{"title": "Frieren: Beyond Journey's End", "year": 2023, "season": 1, "total_episodes": 28, "needs_confirmation": false}`)
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	res, err := c.ResolveSeries(context.Background(), SeriesRequest{DirName: "Frieren.S01.1080p-GRUPPE"})

	require.NoError(t, err)
	assert.Equal(t, "Frieren: Beyond Journey's End", res.Title)
	assert.Equal(t, 2023, res.Year)
	assert.Equal(t, 1, res.Season)
	assert.Equal(t, 28, res.TotalEpisodes)
}

func TestResolveSeriesFenced(t *testing.T) {
	srv := chatServer(t, "```json\n{\"title\": \"Frieren\", \"season\": 1}\n```")
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	res, err := c.ResolveSeries(context.Background(), SeriesRequest{DirName: "Frieren.S01-X"})

	require.NoError(t, err)
	assert.Equal(t, "Frieren", res.Title)
}

func TestResolveSeriesUnresolved(t *testing.T) {
	srv := chatServer(t, `{"unresolved": "name carries no recognizable title"}`)
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.ResolveSeries(context.Background(), SeriesRequest{DirName: "asdf1234"})

	var unresolved *UnresolvedError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "name carries no recognizable title", unresolved.Reason)
}

func TestResolveSeriesSeasonFallback(t *testing.T) {
	srv := chatServer(t, `{"title": "Frieren", "season": 0}`)
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	res, err := c.ResolveSeries(context.Background(), SeriesRequest{DirName: "x", Season: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Season, "season hint fills model gap")

	res, err = c.ResolveSeries(context.Background(), SeriesRequest{DirName: "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Season, "season defaults to 1")
}

func TestResolveSeriesNoCredentials(t *testing.T) {
	c := NewClient("")
	_, err := c.ResolveSeries(context.Background(), SeriesRequest{DirName: "x"})
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestExtractEpisodes(t *testing.T) {
	srv := chatServer(t, `[
		{"index": 0, "season": 1, "episode": 5},
		{"index": 1, "season": null, "episode": null}
	]`)
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	guesses, err := c.ExtractEpisodes(context.Background(), []string{"Frieren - 05 [1080p].mkv", "opening.mkv"})

	require.NoError(t, err)
	require.Len(t, guesses, 2)
	assert.Equal(t, EpisodeGuess{Season: 1, Episode: 5, Determined: true}, guesses[0])
	assert.False(t, guesses[1].Determined)
}

func TestExtractEpisodesEmpty(t *testing.T) {
	c := NewClient("test-key")
	guesses, err := c.ExtractEpisodes(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, guesses)
}

func TestDetectLabels(t *testing.T) {
	srv := chatServer(t, `[
		{"index": 0, "label": "Crunchyroll"},
		{"index": 1, "label": null}
	]`)
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	labels, err := c.DetectLabels(context.Background(), []LabelQuery{
		{Filename: "ep01.ass", ParentDir: "CR"},
		{Filename: "ep01.srt", ParentDir: "misc"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Crunchyroll", ""}, labels)
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.ResolveSeries(context.Background(), SeriesRequest{DirName: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestInvalidModelJSON(t *testing.T) {
	srv := chatServer(t, "Sure! The series is Frieren.")
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.ResolveSeries(context.Background(), SeriesRequest{DirName: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced json", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"whitespace", "  {\"a\": 1}  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.input))
		})
	}
}
