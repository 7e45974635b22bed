// Package research implements the document pipeline: fetch a URL, summarize
// it, derive Q&A pairs and related topics, and look up recommended articles.
package research

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"server/internal/domain"
)

// maxDocumentBytes bounds how much of a remote document is read. arXiv PDFs
// rarely exceed a few megabytes; anything bigger is not worth summarizing.
const maxDocumentBytes = 20 << 20

// Document is a fetched remote document plus the metadata needed for
// content-type dispatch.
type Document struct {
	URL         string
	ContentType string
	Body        []byte
}

func (d *Document) IsPDF() bool {
	return d.ContentType == "application/pdf"
}

func (d *Document) IsHTML() bool {
	return d.ContentType == "text/html"
}

// Fetcher downloads documents for the pipeline.
type Fetcher struct {
	client *http.Client
}

// NewFetcher builds a Fetcher. A nil client gets a default with a download
// timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Fetcher{client: client}
}

// Fetch downloads the document at url. Only PDF and HTML documents are
// supported; anything else is rejected before any model call is spent on it.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("research: build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("research: fetch document: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("research: fetch document: status %d", resp.StatusCode)
	}

	mediaType := resp.Header.Get("Content-Type")
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	doc := &Document{URL: url, ContentType: mediaType}
	if !doc.IsPDF() && !doc.IsHTML() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedDocument, mediaType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("research: read document: %w", err)
	}
	doc.Body = body
	return doc, nil
}
