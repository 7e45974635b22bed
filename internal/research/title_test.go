package research

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTMLTitle(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "title tag wins",
			body: `<html><head><title>Attention Is All You Need</title><meta property="og:title" content="Other"/></head></html>`,
			want: "Attention Is All You Need",
		},
		{
			name: "og title when no title tag",
			body: `<html><head><meta property="og:title" content="Graph Neural Networks"/></head></html>`,
			want: "Graph Neural Networks",
		},
		{
			name: "meta name title as last resort",
			body: `<html><head><meta name="title" content="Survey of Retrieval"/></head></html>`,
			want: "Survey of Retrieval",
		},
		{
			name: "whitespace trimmed",
			body: "<html><head><title>\n  Deep Learning  \n</title></head></html>",
			want: "Deep Learning",
		},
		{
			name: "nothing found",
			body: `<html><body><p>no head metadata</p></body></html>`,
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := htmlTitle([]byte(tc.body)); got != tc.want {
				t.Fatalf("htmlTitle() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTitleLikeLine(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "picks first heading-like line",
			text: "arXiv:1706.03762\nAttention Is All You Need\nAshish Vaswani",
			want: "Attention Is All You Need",
		},
		{
			name: "skips short lines",
			text: "Abstract\nPage 1\nScaling Laws for Neural Language Models\n",
			want: "Scaling Laws for Neural Language Models",
		},
		{
			name: "rejects sentences and urls",
			text: "https://example.com/paper.pdf\nThis paper shows that larger models keep improving.\n",
			want: "",
		},
		{
			name: "gives up after five lines",
			text: "a\nb\nc\nd\ne\nA Perfectly Good Title Too Late",
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := titleLikeLine(tc.text); got != tc.want {
				t.Fatalf("titleLikeLine() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestArxivTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id_list"); got != "1706.03762" {
			t.Fatalf("id_list = %q, want %q", got, "1706.03762")
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>Attention Is All
  You Need</title>
  </entry>
</feed>`))
	}))
	defer srv.Close()

	ex := NewTitleExtractor(srv.Client())
	ex.arxivAPI = srv.URL

	got, err := ex.arxivTitle(context.Background(), "https://arxiv.org/pdf/1706.03762v7.pdf")
	if err != nil {
		t.Fatalf("arxivTitle() error = %v", err)
	}
	if want := "Attention Is All You Need"; got != want {
		t.Fatalf("arxivTitle() = %q, want %q", got, want)
	}
}

func TestArxivTitleNoIDInURL(t *testing.T) {
	ex := NewTitleExtractor(nil)
	if _, err := ex.arxivTitle(context.Background(), "https://arxiv.org/pdf/no-id.pdf"); err == nil {
		t.Fatal("expected error for url without an arxiv id")
	}
}

func TestTitleFallsBackToUntitled(t *testing.T) {
	ex := NewTitleExtractor(nil)
	doc := &Document{
		URL:         "https://example.com/page",
		ContentType: "text/html",
		Body:        []byte(`<html><body>bare page</body></html>`),
	}
	if got := ex.Title(context.Background(), doc); got != untitledDocument {
		t.Fatalf("Title() = %q, want %q", got, untitledDocument)
	}
}
