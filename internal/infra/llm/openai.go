package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"troubadour_scheduler/internal/domain/digest"
)

const (
	defaultAPIBase   = "https://api.openai.com/v1"
	defaultModel     = "gpt-4o-mini"
	summaryMaxTokens = 200
	maxErrorBody     = 512
)

var ErrEmptyCompletion = errors.New("completion has no content")

// SummaryGenerator writes digest blurbs through an OpenAI-compatible
// chat completions API.
type SummaryGenerator struct {
	apiKey  string
	apiBase string
	model   string
	client  *http.Client
}

func NewSummaryGenerator(apiKey, apiBase, model string) *SummaryGenerator {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	if model == "" {
		model = defaultModel
	}
	return &SummaryGenerator{
		apiKey:  apiKey,
		apiBase: strings.TrimRight(apiBase, "/"),
		model:   model,
		client:  &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const systemPrompt = `You write the opening paragraph of a music platform's activity digest.
Write two or three warm, specific sentences addressed to the artist.
Use only the numbers you are given. No greetings, no sign-off, no markdown.`

func (g *SummaryGenerator) GenerateSummary(ctx context.Context, sc digest.SummaryContext) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(sc)},
		},
		MaxTokens:   summaryMaxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiBase+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(respBody) > maxErrorBody {
			respBody = respBody[:maxErrorBody]
		}
		return "", fmt.Errorf("llm returned HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func userPrompt(sc digest.SummaryContext) string {
	m := sc.Metrics
	var b strings.Builder
	if sc.RecipientName != "" {
		fmt.Fprintf(&b, "Artist: %s\n", sc.RecipientName)
	}
	fmt.Fprintf(&b, "Digest cadence: %s (last %d days)\n", sc.Cadence, m.LookbackDays)
	fmt.Fprintf(&b, "Reviews received: %d\n", m.ReviewsReceived)
	if m.ReviewsReceived > 0 {
		fmt.Fprintf(&b, "Average review score: %.1f/10\n", m.AverageScore)
	}
	fmt.Fprintf(&b, "New projects: %d\n", m.NewProjects)
	if m.TopGenre != "" {
		fmt.Fprintf(&b, "Most active genre: %s\n", m.TopGenre)
	}
	fmt.Fprintf(&b, "Current streak: %d days\n", m.StreakDays)
	return b.String()
}
