package research

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"server/internal/domain"
)

const maxRecommended = 5

// Article is one recommended article from web search.
type Article struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Searcher queries the Google Custom Search engine.
type Searcher struct {
	svc      *customsearch.Service
	engineID string
}

func NewSearcher(ctx context.Context, apiKey, engineID string) (*Searcher, error) {
	if apiKey == "" || engineID == "" {
		return nil, fmt.Errorf("search api key and engine id are required")
	}
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("research: build search service: %w", err)
	}
	return &Searcher{svc: svc, engineID: engineID}, nil
}

// Search runs the query and returns up to ten results.
func (s *Searcher) Search(ctx context.Context, query string) ([]Article, error) {
	resp, err := s.svc.Cse.List().Cx(s.engineID).Q(query).Num(10).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: custom search: %v", domain.ErrProviderFailure, err)
	}

	articles := make([]Article, 0, len(resp.Items))
	for _, item := range resp.Items {
		articles = append(articles, Article{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return articles, nil
}

// TopArticles runs the query and keeps the first results that are not the
// document the user just submitted.
func (s *Searcher) TopArticles(ctx context.Context, query, excludeURL string) ([]Article, error) {
	all, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return filterArticles(all, excludeURL, maxRecommended), nil
}

func filterArticles(all []Article, excludeURL string, limit int) []Article {
	kept := make([]Article, 0, limit)
	for _, a := range all {
		if a.Link == excludeURL {
			continue
		}
		kept = append(kept, a)
		if len(kept) == limit {
			break
		}
	}
	return kept
}

var _ ArticleSearcher = (*Searcher)(nil)
