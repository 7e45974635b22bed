package research

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"server/internal/domain"
)

func TestParseQnAPairs(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []QnAPair
	}{
		{
			name:  "alternating lines",
			reply: "What is attention?\nA weighting over inputs.\nWhy does it scale?\nIt parallelizes well.",
			want: []QnAPair{
				{Question: "What is attention?", Answer: "A weighting over inputs."},
				{Question: "Why does it scale?", Answer: "It parallelizes well."},
			},
		},
		{
			name:  "blank lines between pairs",
			reply: "Q one?\n\nAnswer one.\n\n\nQ two?\nAnswer two.\n",
			want: []QnAPair{
				{Question: "Q one?", Answer: "Answer one."},
				{Question: "Q two?", Answer: "Answer two."},
			},
		},
		{
			name:  "trailing unpaired question dropped",
			reply: "Q one?\nAnswer one.\nDangling question?",
			want: []QnAPair{
				{Question: "Q one?", Answer: "Answer one."},
			},
		},
		{
			name:  "empty reply",
			reply: "\n\n",
			want:  []QnAPair{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := parseQnAPairs(tc.reply); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("parseQnAPairs() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestParseTopicList(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []string
	}{
		{
			name:  "bare array",
			reply: `["Transformer architectures", "Sequence modeling"]`,
			want:  []string{"Transformer architectures", "Sequence modeling"},
		},
		{
			name:  "code fenced",
			reply: "```json\n[\"Topic A\", \"Topic B\"]\n```",
			want:  []string{"Topic A", "Topic B"},
		},
		{
			name:  "surrounding prose",
			reply: `Sure, here are two topics: ["Topic A", "Topic B"] hope that helps`,
			want:  []string{"Topic A", "Topic B"},
		},
		{
			name:  "no array",
			reply: "Topic A and Topic B",
			want:  nil,
		},
		{
			name:  "invalid json",
			reply: `["Topic A", 42]`,
			want:  nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := parseTopicList(tc.reply); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("parseTopicList() = %v, want %v", got, tc.want)
			}
		})
	}
}

func newStubOpenAI(t *testing.T, reply string) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("authorization = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Fatalf("messages = %+v", req.Messages)
		}
		_ = json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{
				{Message: chatMessage{Role: "assistant", Content: reply}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	c, err := NewOpenAIClient(OpenAIOptions{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewOpenAIClient() error = %v", err)
	}
	return c
}

func TestGenerateQnA(t *testing.T) {
	c := newStubOpenAI(t, "What is this paper about?\nEfficient attention.\nWho benefits?\nAnyone training long sequences.")

	pairs, err := c.GenerateQnA(context.Background(), "a summary")
	if err != nil {
		t.Fatalf("GenerateQnA() error = %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(pairs))
	}
	if pairs[0].Question != "What is this paper about?" || pairs[0].Answer != "Efficient attention." {
		t.Fatalf("first pair = %+v", pairs[0])
	}
}

func TestGenerateQnAPromptAsksForTenToFifteenPairs(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotPrompt = req.Messages[0].Content
		_ = json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{
				{Message: chatMessage{Role: "assistant", Content: "Q?\nA."}},
			},
		})
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(OpenAIOptions{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewOpenAIClient() error = %v", err)
	}
	if _, err := c.GenerateQnA(context.Background(), "the document summary"); err != nil {
		t.Fatalf("GenerateQnA() error = %v", err)
	}
	if !strings.Contains(gotPrompt, "10-15 questions") {
		t.Fatalf("prompt = %q, want it to ask for 10-15 questions", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "the document summary") {
		t.Fatalf("prompt = %q, want it to include the summary", gotPrompt)
	}
}

func TestGenerateQnAEmptyReply(t *testing.T) {
	c := newStubOpenAI(t, "   ")

	if _, err := c.GenerateQnA(context.Background(), "a summary"); !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("error = %v, want ErrProviderFailure", err)
	}
}

func TestRelatedTopicsTruncatesToTwo(t *testing.T) {
	c := newStubOpenAI(t, `["One", "Two", "Three"]`)

	topics, err := c.RelatedTopics(context.Background(), "a summary")
	if err != nil {
		t.Fatalf("RelatedTopics() error = %v", err)
	}
	if !reflect.DeepEqual(topics, []string{"One", "Two"}) {
		t.Fatalf("topics = %v", topics)
	}
}

func TestOpenAIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(OpenAIOptions{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewOpenAIClient() error = %v", err)
	}
	if _, err := c.GenerateQnA(context.Background(), "s"); !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("error = %v, want ErrProviderFailure", err)
	}
}
