// Package vision sends vehicle photos to a vision model and returns its raw
// JSON damage report.
package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured = errors.New("vision: analyzer not configured")
	ErrNoImages      = errors.New("vision: no images")
	ErrEmptyResponse = errors.New("vision: empty model response")
	ErrNotJSON       = errors.New("vision: model response is not JSON")
)

// Analyzer turns photos into an untrusted JSON damage payload.
type Analyzer interface {
	Analyze(ctx context.Context, images []Image) ([]byte, error)
}

// Messager is the subset of the Anthropic client used here.
type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// NewMessager builds a real client for apiKey.
func NewMessager(apiKey string) Messager {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &client.Messages
}

type Config struct {
	Model     string
	MaxTokens int64
	Timeout   time.Duration
}

// AnthropicAnalyzer asks a Claude model for a damage report.
type AnthropicAnalyzer struct {
	messages Messager
	cfg      Config
	log      *zap.Logger
}

func NewAnthropicAnalyzer(m Messager, cfg Config, log *zap.Logger) *AnthropicAnalyzer {
	if cfg.Model == "" {
		cfg.Model = string(anthropic.ModelClaudeSonnet4_20250514)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AnthropicAnalyzer{messages: m, cfg: cfg, log: log}
}

func (a *AnthropicAnalyzer) Analyze(ctx context.Context, images []Image) ([]byte, error) {
	if a == nil || a.messages == nil {
		return nil, ErrNotConfigured
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(images)+1)
	blocks = append(blocks, anthropic.NewTextBlock(buildUserRequest(len(images))))
	for _, img := range images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(img.MediaType, img.Data))
	}

	start := time.Now()
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.cfg.Model),
		MaxTokens: a.cfg.MaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: buildSystemPrompt(len(images))},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vision: model call failed: %w", err)
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	raw := stripCodeFences(strings.Join(parts, ""))
	if raw == "" {
		return nil, ErrEmptyResponse
	}
	if !json.Valid([]byte(raw)) {
		a.log.Warn("vision response is not json", zap.Int("length", len(raw)))
		return nil, ErrNotJSON
	}

	a.log.Debug("vision analysis finished",
		zap.Int("images", len(images)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)
	return []byte(raw), nil
}

// stripCodeFences removes a surrounding markdown fence, if any.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s[3:], "\n"); idx >= 0 {
		s = s[3+idx+1:]
	} else {
		s = s[3:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
