// Package llm talks to the language model via OpenRouter.
//
// OpenRouter provides a unified API for multiple LLM providers (OpenAI,
// Anthropic, Google, etc.) using a single API key. The request format
// follows the OpenAI chat completions standard.
//
// The core's job ends at chunk selection and prompt assembly — model
// behavior is the provider's problem. All calls go through a client-side
// rate limiter so a burst of summary requests doesn't trip provider
// limits.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
)

// ErrGenerationFailed means the model call failed or returned nothing.
// Non-fatal to the summary cache — nothing gets cached on failure.
var ErrGenerationFailed = errors.New("text generation failed")

// maxContextChars bounds how much chunk text goes into one prompt.
// Roughly 15k tokens at 4 chars/token — safely under the context window
// of every model we route to.
const maxContextChars = 60000

// Client handles AI text generation.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates an LLM client.
func New(apiKey, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		// Go Pattern: Always configure timeouts on HTTP clients.
		// The default http.Client has NO timeout — requests can hang forever!
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // LLMs can be slow
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

// IsConfigured reports whether an API key is present.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// --- OpenRouter API types ---
// These match the OpenAI chat completions format used by OpenRouter.

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Model string `json:"model"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Summarize generates a summary of everything the reader has seen so far.
func (c *Client) Summarize(ctx context.Context, chunks []models.Chunk) (string, error) {
	prompt := fmt.Sprintf(`The following is the portion of a book the reader has read so far, in order.

Summarize it in 2-4 paragraphs: the key events, arguments, and people introduced so far. Do not reveal or speculate about anything beyond this point in the book.

%s`, assembleContext(chunks))

	return c.complete(ctx,
		"You are a careful reading companion. You summarize exactly what the reader has seen and never spoil what comes next.",
		prompt)
}

// Answer responds to a reader question using only the content read so far.
func (c *Client) Answer(ctx context.Context, chunks []models.Chunk, question string) (string, error) {
	prompt := fmt.Sprintf(`The following is the portion of a book the reader has read so far, in order.

Answer the reader's question using ONLY this content. If the answer isn't in what they've read yet, say so rather than guessing.

**Question:** %s

**Content read so far:**
%s`, question, assembleContext(chunks))

	return c.complete(ctx,
		"You are a careful reading companion. You answer questions about exactly what the reader has seen and never spoil what comes next.",
		prompt)
}

// assembleContext joins chunk contents under the prompt budget. When the
// window is too large, the earliest chunks are dropped — the most recent
// reading matters most for both summaries and questions.
func assembleContext(chunks []models.Chunk) string {
	var parts []string
	total := 0
	for i := len(chunks) - 1; i >= 0; i-- {
		content := chunks[i].Content
		if total+len(content) > maxContextChars {
			parts = append(parts, "[...earlier content truncated...]")
			break
		}
		parts = append(parts, content)
		total += len(content)
	}
	// parts were collected newest-first; restore reading order.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "\n\n")
}

// complete sends one chat completion request and returns the text.
func (c *Client) complete(ctx context.Context, system, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: OpenRouter API key not configured; set OPENROUTER_API_KEY", ErrGenerationFailed)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	log.Printf("🤖 Generating with %s (%d char prompt)", c.model, len(prompt))

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		"https://openrouter.ai/api/v1/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", "https://github.com/Shimizu-Technology/reader-tools-api")
	req.Header.Set("X-Title", "Reader Tools API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: OpenRouter request failed: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close() // Go Pattern: ALWAYS close response bodies!

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrGenerationFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: OpenRouter returned %d: %s", ErrGenerationFailed, resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: failed to parse response: %v", ErrGenerationFailed, err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: OpenRouter error: %s", ErrGenerationFailed, chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: no response from model", ErrGenerationFailed)
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}
