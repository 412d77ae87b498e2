package featureconfig

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPSourceFetch(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		data, _ := EncodeDocument(testDocument())
		_, _ = w.Write(data)
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL, server.Client())
	doc, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotPath != DocumentPath {
		t.Fatalf("expected request to %s, got %s", DocumentPath, gotPath)
	}
	if doc.Version != 3 {
		t.Fatalf("expected version 3, got %d", doc.Version)
	}
}

func TestHTTPSourceFetchBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL, server.Client())
	if _, err := source.Fetch(context.Background()); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestHTTPSourceFetchMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL, server.Client())
	if _, err := source.Fetch(context.Background()); err == nil {
		t.Fatal("expected error on malformed payload")
	}
}

func TestHTTPSourceFetchCancelled(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	source := NewHTTPSource(server.URL, server.Client())
	if _, err := source.Fetch(ctx); err == nil {
		t.Fatal("expected error on cancelled fetch")
	}
}
