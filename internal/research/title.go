package research

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

const untitledDocument = "Untitled Document"

var arxivIDPattern = regexp.MustCompile(`(\d+\.\d+)`)

// TitleExtractor derives a human-readable title for a fetched document.
// Structured metadata is preferred; the text-scan heuristic is the last
// resort before giving up.
type TitleExtractor struct {
	client   *http.Client
	arxivAPI string
}

// NewTitleExtractor builds a TitleExtractor using the given HTTP client for
// the arXiv metadata lookup.
func NewTitleExtractor(client *http.Client) *TitleExtractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &TitleExtractor{
		client:   client,
		arxivAPI: "https://export.arxiv.org/api/query",
	}
}

// Title extracts the best available title for the document, falling back to
// "Untitled Document" when every strategy comes up empty.
func (t *TitleExtractor) Title(ctx context.Context, doc *Document) string {
	var title string
	switch {
	case doc.IsHTML():
		title = htmlTitle(doc.Body)
	case doc.IsPDF():
		title = pdfInfoTitle(doc.Body)
		if title == "" && strings.Contains(doc.URL, "arxiv.org") {
			if v, err := t.arxivTitle(ctx, doc.URL); err == nil {
				title = v
			}
		}
		if title == "" {
			title = pdfHeuristicTitle(doc.Body)
		}
	}
	if title == "" {
		return untitledDocument
	}
	return title
}

// htmlTitle walks the HTML token stream for <title>, then the og:title and
// name=title meta tags.
func htmlTitle(body []byte) string {
	var titleTag, ogTitle, metaTitle string

	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		if tt == html.StartTagToken && tok.Data == "title" && titleTag == "" {
			if z.Next() == html.TextToken {
				titleTag = strings.TrimSpace(string(z.Text()))
			}
			continue
		}
		if tok.Data == "meta" {
			var property, name, content string
			for _, attr := range tok.Attr {
				switch attr.Key {
				case "property":
					property = attr.Val
				case "name":
					name = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if property == "og:title" && ogTitle == "" {
				ogTitle = strings.TrimSpace(content)
			}
			if name == "title" && metaTitle == "" {
				metaTitle = strings.TrimSpace(content)
			}
		}
	}

	for _, candidate := range []string{titleTag, ogTitle, metaTitle} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// pdfInfoTitle reads the Title entry of the PDF Info dictionary, if any.
func pdfInfoTitle(body []byte) string {
	defer func() {
		// The pdf package panics on some malformed documents; a broken
		// Info dictionary just means no metadata title.
		_ = recover()
	}()
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return ""
	}
	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return ""
	}
	title := info.Key("Title")
	if title.Kind() != pdf.String {
		return ""
	}
	return strings.TrimSpace(title.Text())
}

// pdfHeuristicTitle scans the first page for a title-like line: long enough
// to be a sentence fragment, short enough to be a heading, no trailing
// period, not a URL.
func pdfHeuristicTitle(body []byte) string {
	defer func() {
		_ = recover()
	}()
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil || reader.NumPage() < 1 {
		return ""
	}
	page := reader.Page(1)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return titleLikeLine(text)
}

func titleLikeLine(text string) string {
	lines := strings.Split(text, "\n")
	checked := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		checked++
		if checked > 5 {
			break
		}
		if len(line) >= 15 && len(line) <= 100 &&
			!strings.HasSuffix(line, ".") &&
			!strings.HasPrefix(line, "http") {
			return line
		}
	}
	return ""
}

type arxivFeed struct {
	Entries []struct {
		Title string `xml:"title"`
	} `xml:"entry"`
}

// arxivTitle resolves the paper title through the arXiv metadata API using
// the numeric ID embedded in the PDF URL.
func (t *TitleExtractor) arxivTitle(ctx context.Context, pdfURL string) (string, error) {
	m := arxivIDPattern.FindStringSubmatch(pdfURL)
	if m == nil {
		return "", fmt.Errorf("research: no arxiv id in %q", pdfURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.arxivAPI+"?id_list="+m[1], nil)
	if err != nil {
		return "", err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("research: arxiv api status %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return "", err
	}
	if len(feed.Entries) == 0 || strings.TrimSpace(feed.Entries[0].Title) == "" {
		return "", fmt.Errorf("research: arxiv entry has no title")
	}
	return strings.Join(strings.Fields(feed.Entries[0].Title), " "), nil
}
