package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"fnolapi/internal/config"
)

// Attachment is one binary input forwarded to the vision model alongside the
// prompt text. MediaType must be the exact MIME type of Data.
type Attachment struct {
	MediaType string
	Data      []byte
}

// IsPDF reports whether the attachment should be sent as a document block
// rather than an image block.
func (a Attachment) IsPDF() bool {
	return a.MediaType == "application/pdf"
}

// Prompt is one fully assembled model request.
type Prompt struct {
	System      string
	Text        string
	Attachments []Attachment
}

// Caller abstracts the underlying model transport. Implementations return the
// raw response text; decoding and schema validation happen in the gateway.
type Caller interface {
	GenerateJSON(ctx context.Context, p Prompt) (string, error)
}

type failureClass int

const (
	failureNone failureClass = iota
	failureTimeout
	failureRateLimit
	failureServer
	failureClient
)

// Messager is the slice of the Anthropic client the caller needs.
type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicCaller sends vision prompts to the Anthropic Messages API.
type AnthropicCaller struct {
	messages  Messager
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropicCaller builds a caller from config. The HTTP transport is
// instrumented so gateway calls show up in traces.
func NewAnthropicCaller(cfg config.AIConfig) (*AnthropicCaller, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("ai gateway api key is required")
	}
	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	c := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	)
	mdl := anthropic.ModelClaudeSonnet4_20250514
	if cfg.Model != "" {
		mdl = anthropic.Model(cfg.Model)
	}
	maxTokens := int64(4096)
	if cfg.MaxTokens > 0 {
		maxTokens = int64(cfg.MaxTokens)
	}
	return &AnthropicCaller{messages: &c.Messages, model: mdl, maxTokens: maxTokens}, nil
}

// GenerateJSON sends the prompt with its attachments and concatenates the
// text blocks of the response.
func (a *AnthropicCaller) GenerateJSON(ctx context.Context, p Prompt) (string, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(p.Attachments)+1)
	blocks = append(blocks, anthropic.NewTextBlock(p.Text))
	for _, att := range p.Attachments {
		data := base64.StdEncoding.EncodeToString(att.Data)
		if att.IsPDF() {
			blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: data}))
		} else {
			blocks = append(blocks, anthropic.NewImageBlockBase64(att.MediaType, data))
		}
	}

	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      []anthropic.TextBlockParam{{Text: p.System}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

func classifyTransportError(err error) failureClass {
	msg := strings.ToLower(err.Error())
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	switch {
	case strings.Contains(msg, "429"):
		return failureRateLimit
	case strings.Contains(msg, " 5") || strings.Contains(msg, "status code: 5") || strings.Contains(msg, "server error"):
		return failureServer
	case strings.Contains(msg, " 4") || strings.Contains(msg, "status code: 4"):
		return failureClient
	default:
		return failureServer
	}
}

func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	return 2 * time.Second
}
