package generator

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonesrussell/brand-studio/internal/models"
)

const (
	defaultLLMTimeout = 25 * time.Second
	minLLMTimeout     = time.Second
	defaultMaxTokens  = 800
	minMaxTokens      = 64
)

// LLMConfig holds the text-generation collaborator settings.
type LLMConfig struct {
	Enabled     bool
	BaseURL     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// LLMClient streams generated text from the host core's SSE endpoint.
type LLMClient struct {
	cfg    LLMConfig
	client *http.Client
}

// NewLLMClient creates an LLM client. The client is usable even when
// disabled; Generate then fails fast so callers can fall back.
func NewLLMClient(cfg LLMConfig) *LLMClient {
	if cfg.Timeout < minLLMTimeout {
		cfg.Timeout = defaultLLMTimeout
	}
	if cfg.MaxTokens < minMaxTokens {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &LLMClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled reports whether the collaborator is configured for use.
func (c *LLMClient) Enabled() bool {
	return c.cfg.Enabled
}

// Generate requests text for a prompt and assembles the streamed
// content events into a single string.
func (c *LLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.cfg.Enabled {
		return "", fmt.Errorf("%w: llm disabled", models.ErrCollaborator)
	}

	payload, err := json.Marshal(map[string]any{
		"content":     prompt,
		"max_tokens":  c.cfg.MaxTokens,
		"temperature": c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal llm request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/v1/llm/simple/stream"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create llm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: llm request: %v", models.ErrCollaborator, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: llm returned status %d", models.ErrCollaborator, resp.StatusCode)
	}

	content, err := readStream(resp.Body)
	if err != nil {
		return "", err
	}
	if content == "" {
		return "", fmt.Errorf("%w: llm returned empty response", models.ErrCollaborator)
	}
	return content, nil
}

// readStream consumes the SSE stream: "content" events carry text
// chunks, "error" aborts, "done" ends the stream.
func readStream(body io.Reader) (string, error) {
	var chunks []string
	currentEvent := ""

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if after, ok := strings.CutPrefix(line, "event:"); ok {
			currentEvent = strings.TrimSpace(after)
			continue
		}
		after, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data := strings.TrimSpace(after)

		switch currentEvent {
		case "content":
			var packet struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal([]byte(data), &packet); err != nil {
				return "", fmt.Errorf("%w: llm stream decode: %v", models.ErrCollaborator, err)
			}
			if packet.Text != "" {
				chunks = append(chunks, packet.Text)
			}
		case "error":
			message := "llm stream error"
			var packet struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal([]byte(data), &packet); err == nil && strings.TrimSpace(packet.Message) != "" {
				message = packet.Message
			}
			return "", fmt.Errorf("%w: %s", models.ErrCollaborator, message)
		case "done":
			return strings.TrimSpace(strings.Join(chunks, "")), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: llm stream read: %v", models.ErrCollaborator, err)
	}
	return strings.TrimSpace(strings.Join(chunks, "")), nil
}
