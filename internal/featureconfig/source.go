package featureconfig

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DocumentPath is the fixed relative path of the configuration document on
// the distribution host.
const DocumentPath = "/config/feature-access.json"

// Source retrieves a fresh configuration document. Fetch may fail for
// network or decode reasons; callers decide how to degrade.
type Source interface {
	Fetch(ctx context.Context) (Document, error)
}

// HTTPSource fetches the document from a configured base URL.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates a source for the given base URL. A nil client falls
// back to http.DefaultClient; callers wanting timeouts pass their own.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

// Fetch performs a single GET of the document and decodes it. Non-2xx
// responses and undecodable payloads are fetch errors.
func (s *HTTPSource) Fetch(ctx context.Context) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+DocumentPath, nil)
	if err != nil {
		return Document{}, fmt.Errorf("featureconfig: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("featureconfig: fetch document: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Document{}, fmt.Errorf("featureconfig: fetch document: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Document{}, fmt.Errorf("featureconfig: read document: %w", err)
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		return Document{}, fmt.Errorf("featureconfig: decode document: %w", err)
	}
	return doc, nil
}
