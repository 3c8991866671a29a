package models

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// OllamaLLM implements Provider against a local Ollama server.
type OllamaLLM struct {
	Client       *ollama.Client
	ModelID      string
	PromptPrefix string
}

func NewOllamaLLM(model string, promptPrefix string) (*OllamaLLM, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", host, err)
	}

	httpClient := &http.Client{
		Timeout: 120 * time.Second,
	}

	return &OllamaLLM{
		Client:       ollama.NewClient(u, httpClient),
		ModelID:      model,
		PromptPrefix: promptPrefix,
	}, nil
}

func (o *OllamaLLM) Name() string  { return "ollama" }
func (o *OllamaLLM) Model() string { return o.ModelID }

// Generate streams the response and accumulates it into a single completion.
func (o *OllamaLLM) Generate(ctx context.Context, prompt string) (Completion, error) {
	fullPrompt := prompt
	if o.PromptPrefix != "" {
		fullPrompt = fmt.Sprintf("%s\n\n%s", o.PromptPrefix, prompt)
	}

	var (
		text strings.Builder
		last ollama.GenerateResponse
	)

	req := &ollama.GenerateRequest{
		Model:  o.ModelID,
		Prompt: fullPrompt,
	}

	if err := o.Client.Generate(ctx, req, func(gr ollama.GenerateResponse) error {
		if gr.Response != "" {
			text.WriteString(gr.Response)
		}
		last = gr
		return nil
	}); err != nil {
		return Completion{}, err
	}

	return Completion{
		Text: text.String(),
		Usage: TokenUsage{
			PromptTokens:     last.PromptEvalCount,
			CompletionTokens: last.EvalCount,
		},
	}, nil
}

var _ Provider = (*OllamaLLM)(nil)
