package research

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Summarizer produces a prose summary of a fetched document.
type Summarizer interface {
	Summarize(ctx context.Context, doc *Document) (string, error)
}

// QnAProvider turns a summary into Q&A pairs and related research topics.
type QnAProvider interface {
	GenerateQnA(ctx context.Context, summary string) ([]QnAPair, error)
	RelatedTopics(ctx context.Context, summary string) ([]string, error)
}

// ArticleSearcher finds recommended articles for a query.
type ArticleSearcher interface {
	TopArticles(ctx context.Context, query, excludeURL string) ([]Article, error)
}

// Result is the full pipeline output for one submitted document.
type Result struct {
	ArticleTitle        string    `json:"articleTitle"`
	Summary             string    `json:"summary"`
	QnAPairs            []QnAPair `json:"qnaPairs"`
	RecommendedArticles []Article `json:"recommendedArticles"`
}

// Service runs the research pipeline end to end. The summary and Q&A steps
// are mandatory; related topics and article search degrade to an empty
// recommendation list so a flaky search backend never fails the request.
type Service struct {
	fetcher    *Fetcher
	titles     *TitleExtractor
	summarizer Summarizer
	qna        QnAProvider
	search     ArticleSearcher
	logger     zerolog.Logger
}

func NewService(fetcher *Fetcher, titles *TitleExtractor, summarizer Summarizer, qna QnAProvider, search ArticleSearcher, logger zerolog.Logger) *Service {
	return &Service{
		fetcher:    fetcher,
		titles:     titles,
		summarizer: summarizer,
		qna:        qna,
		search:     search,
		logger:     logger,
	}
}

// GenerateQnA fetches the document at url and produces the title, summary,
// Q&A pairs, and recommended articles.
func (s *Service) GenerateQnA(ctx context.Context, url string) (*Result, error) {
	doc, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	title := s.titles.Title(ctx, doc)
	summary, err := s.summarizer.Summarize(ctx, doc)
	if err != nil {
		return nil, err
	}
	pairs, err := s.qna.GenerateQnA(ctx, summary)
	if err != nil {
		return nil, err
	}

	return &Result{
		ArticleTitle:        title,
		Summary:             summary,
		QnAPairs:            pairs,
		RecommendedArticles: s.recommend(ctx, url, title, summary),
	}, nil
}

// Summarize fetches the document at url and returns its title and summary.
// The audio endpoint uses this lighter path.
func (s *Service) Summarize(ctx context.Context, url string) (title, summary string, err error) {
	doc, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", "", err
	}
	summary, err = s.summarizer.Summarize(ctx, doc)
	if err != nil {
		return "", "", err
	}
	return s.titles.Title(ctx, doc), summary, nil
}

// recommend derives a search query from the related topics, falling back to
// the document title, and returns whatever the search backend finds.
func (s *Service) recommend(ctx context.Context, url, title, summary string) []Article {
	if s.search == nil {
		return []Article{}
	}

	query := title
	topics, err := s.qna.RelatedTopics(ctx, summary)
	if err != nil {
		s.logger.Warn().Err(err).Msg("related topics unavailable, searching by title")
	} else {
		query = strings.Join(topics, " ")
	}
	if strings.TrimSpace(query) == "" || query == untitledDocument {
		return []Article{}
	}

	articles, err := s.search.TopArticles(ctx, query, url)
	if err != nil {
		s.logger.Warn().Err(err).Str("query", query).Msg("article search failed")
		return []Article{}
	}
	return articles
}
