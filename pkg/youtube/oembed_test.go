package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ?start=10", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
	}
	for _, tt := range tests {
		got, err := ExtractVideoID(tt.url)
		if err != nil {
			t.Errorf("ExtractVideoID(%q) returned error: %v", tt.url, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}

	for _, bad := range []string{"", "not a url", "https://www.youtube.com/watch?v=short", "https://example.com/"} {
		if _, err := ExtractVideoID(bad); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("ExtractVideoID(%q): expected ErrInvalidURL, got %v", bad, err)
		}
	}
}

func TestFetchMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("expected format=json, got %q", r.URL.RawQuery)
		}
		if r.URL.Query().Get("url") != "https://youtu.be/dQw4w9WgXcQ" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"title":"周杰伦 Jay Chou【晴天】Official MV","author_name":"JVR Music","provider_name":"YouTube"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	meta, err := client.FetchMetadata(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("FetchMetadata failed: %v", err)
	}
	if meta.VideoID != "dQw4w9WgXcQ" || meta.AuthorName != "JVR Music" {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if meta.Title != "周杰伦 Jay Chou【晴天】Official MV" {
		t.Errorf("unexpected title %q", meta.Title)
	}

	if _, err := client.FetchMetadata(context.Background(), "https://youtu.be/aaaaaaaaaaa"); err == nil {
		t.Error("expected error for 404 response")
	}

	if _, err := client.FetchMetadata(context.Background(), "garbage"); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}
}
