package llm

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"
)

const requestTimeout = 45 * time.Second

// AnthropicService implements TextService on the Anthropic Messages API.
type AnthropicService struct {
	client anthropic.Client
	model  anthropic.Model
}

var _ TextService = (*AnthropicService)(nil)

// NewAnthropicService creates a client for the given model.
func NewAnthropicService(apiKey, model string) (*AnthropicService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	return &AnthropicService{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}, nil
}

const rateSystemPrompt = "You rate online discussion threads for relevance. " +
	"Reply with a single integer from 1 to 10 and nothing else. " +
	"10 means the thread is exactly the kind described in the background; " +
	"1 means it is unrelated."

// Rate asks the model for a 1-10 rating and parses the first integer in the
// reply. Any transport or parse failure surfaces as a service error so the
// caller falls back to its deterministic score.
func (s *AnthropicService) Rate(ctx context.Context, text, background string) (int, error) {
	prompt := fmt.Sprintf("Background: %s\n\nThread:\n%s\n\nRating:", background, text)

	reply, err := s.send(ctx, rateSystemPrompt, prompt, 8, 0)
	if err != nil {
		return 0, err
	}

	rating, err := parseRating(reply)
	if err != nil {
		return 0, fmt.Errorf("unusable rating %q: %w", reply, ErrServiceUnavailable)
	}
	return rating, nil
}

// Complete generates free-form text from a prompt within a token budget.
func (s *AnthropicService) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	return s.send(ctx, "", prompt, maxTokens, temperature)
}

func (s *AnthropicService) send(ctx context.Context, system, prompt string, maxTokens int, temperature float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     s.model,
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	message, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return "", classifyError(err)
	}
	if message == nil || len(message.Content) == 0 {
		return "", fmt.Errorf("empty completion: %w", ErrServiceUnavailable)
	}

	var out strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}

	logrus.Debugf("Text service used %d input / %d output tokens",
		message.Usage.InputTokens, message.Usage.OutputTokens)
	return out.String(), nil
}

func classifyError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != 429 {
			return fmt.Errorf("text service status %d: %w", apiErr.StatusCode, ErrInvalidRequest)
		}
		return fmt.Errorf("text service status %d: %w", apiErr.StatusCode, ErrServiceUnavailable)
	}
	return fmt.Errorf("text service request failed: %v: %w", err, ErrServiceUnavailable)
}

func parseRating(reply string) (int, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(reply), func(r rune) bool {
		return r < '0' || r > '9'
	})
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			continue
		}
		if n < 1 {
			n = 1
		}
		if n > 10 {
			n = 10
		}
		return n, nil
	}
	return 0, fmt.Errorf("no integer in reply")
}
