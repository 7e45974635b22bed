package research

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"server/internal/domain"
)

const openaiDefaultTimeout = 60 * time.Second

var blankLinePattern = regexp.MustCompile(`\n+`)

// QnAPair is one generated question with its answer.
type QnAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// OpenAIOptions controls how the OpenAI client is configured.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAIClient generates Q&A pairs and related topics through the chat
// completions endpoint.
type OpenAIClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openaiDefaultTimeout}
	}
	return &OpenAIClient{
		apiKey:  opts.APIKey,
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

// GenerateQnA asks the model for 10-15 question/answer pairs about the
// summary and parses the alternating question/answer lines of the reply.
func (c *OpenAIClient) GenerateQnA(ctx context.Context, summary string) ([]QnAPair, error) {
	prompt := fmt.Sprintf(
		"Based on the following summary, generate 10-15 questions that help readers understand the content, each with an informative answer. "+
			"Write each question on its own line followed by its answer on the next line. "+
			"Do not number or label the lines.\n\nSummary:\n%s",
		summary,
	)
	reply, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	pairs := parseQnAPairs(reply)
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: openai reply had no question/answer lines", domain.ErrProviderFailure)
	}
	return pairs, nil
}

// RelatedTopics asks the model for exactly two short research topics related
// to the summary.
func (c *OpenAIClient) RelatedTopics(ctx context.Context, summary string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Suggest exactly 2 short research topics closely related to the following summary. "+
			"Reply with only a JSON array of 2 strings, for example [\"Topic one\", \"Topic two\"].\n\nSummary:\n%s",
		summary,
	)
	reply, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	topics := parseTopicList(reply)
	if len(topics) == 0 {
		return nil, fmt.Errorf("%w: openai reply had no topic list", domain.ErrProviderFailure)
	}
	if len(topics) > 2 {
		topics = topics[:2]
	}
	return topics, nil
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("research: encode openai request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", &buf)
	if err != nil {
		return "", fmt.Errorf("research: build openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: openai: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: openai status %d", domain.ErrProviderFailure, resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: openai: decode response: %v", domain.ErrProviderFailure, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", domain.ErrProviderFailure)
	}
	return out.Choices[0].Message.Content, nil
}

// parseQnAPairs splits the reply into non-empty lines and pairs them up as
// alternating questions and answers. A trailing unpaired question is dropped.
func parseQnAPairs(reply string) []QnAPair {
	raw := blankLinePattern.Split(reply, -1)
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	pairs := make([]QnAPair, 0, len(lines)/2)
	for i := 0; i+1 < len(lines); i += 2 {
		pairs = append(pairs, QnAPair{
			Question: lines[i],
			Answer:   lines[i+1],
		})
	}
	return pairs
}

// parseTopicList pulls the JSON string array out of the reply, tolerating
// code fences and surrounding prose.
func parseTopicList(reply string) []string {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")

	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil
	}

	var topics []string
	if err := json.Unmarshal([]byte(reply[start:end+1]), &topics); err != nil {
		return nil
	}
	cleaned := topics[:0]
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if topic != "" {
			cleaned = append(cleaned, topic)
		}
	}
	return cleaned
}

var (
	_ QnAProvider = (*OpenAIClient)(nil)
)
