package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"booksphere/pkg/domain"
)

func fakeGemini(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.Contains(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		resp := generateResponse{}
		resp.Candidates = []struct {
			Content content `json:"content"`
		}{
			{Content: content{Parts: []part{{Text: reply}}}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(t *testing.T, srv *httptest.Server) *GeminiClient {
	t.Helper()
	c, err := NewGeminiClient("test-key", "")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.baseURL = srv.URL
	return c
}

func TestRecommendFiltersUnknownIDs(t *testing.T) {
	srv := fakeGemini(t, `{"recommendations":[{"bookId":"b1","reason":"close match"},{"bookId":"hallucinated","reason":"made up"}]}`)
	defer srv.Close()
	c := newTestClient(t, srv)

	available := []domain.Book{{ID: "b1", Title: "Known"}}
	got, err := c.Recommend(context.Background(), "something", available)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(got) != 1 || got[0].BookID != "b1" {
		t.Fatalf("expected [b1], got %+v", got)
	}
}

func TestRecommendHandlesFencedJSON(t *testing.T) {
	srv := fakeGemini(t, "```json\n{\"recommendations\":[{\"bookId\":\"b1\",\"reason\":\"ok\"}]}\n```")
	defer srv.Close()
	c := newTestClient(t, srv)

	got, err := c.Recommend(context.Background(), "q", []domain.Book{{ID: "b1"}})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one suggestion, got %+v", got)
	}
}

func TestRecommendEmptyCatalog(t *testing.T) {
	c, err := NewGeminiClient("test-key", "")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	// No HTTP call is made for an empty list.
	got, err := c.Recommend(context.Background(), "q", nil)
	if err != nil || got != nil {
		t.Fatalf("expected nil/nil for empty catalog, got %+v err=%v", got, err)
	}
}

func TestGenerateBookMetadata(t *testing.T) {
	srv := fakeGemini(t, `{"description":"A sweeping tale.","category":"Fiction","tags":["epic","drama"]}`)
	defer srv.Close()
	c := newTestClient(t, srv)

	meta, err := c.GenerateBookMetadata(context.Background(), "Title", "Author")
	if err != nil {
		t.Fatalf("generate metadata: %v", err)
	}
	if meta.Category != "Fiction" || len(meta.Tags) != 2 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestChatSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "quota exceeded"}})
	}))
	defer srv.Close()
	c := newTestClient(t, srv)

	if _, err := c.Chat(context.Background(), "hello", nil); err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":                      `{"a":1}`,
		"```json\n{\"a\":1}\n```":        `{"a":1}`,
		"```\n{\"a\":1}\n```":            `{"a":1}`,
		"  \n```json\n{\"a\":1}\n```\n ": `{"a":1}`,
	}
	for in, want := range cases {
		if got := stripFences(in); got != want {
			t.Fatalf("stripFences(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeModel(t *testing.T) {
	if got := normalizeModel("models/gemini-2.5-flash"); got != "gemini-2.5-flash" {
		t.Fatalf("unexpected model: %q", got)
	}
	if got := normalizeModel("  gemini-2.5-pro "); got != "gemini-2.5-pro" {
		t.Fatalf("unexpected model: %q", got)
	}
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	if _, err := NewGeminiClient("   ", ""); err == nil {
		t.Fatalf("expected missing key to fail")
	}
}
