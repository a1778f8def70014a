package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// Ollama implements the Analyzer interface using a local Ollama vision model
type Ollama struct {
	client  *ollama.Client
	model   string
	timeout time.Duration
}

// NewOllama creates a new Ollama Analyzer instance
// Recommended models for invoices (in order of recommendation):
//   - qwen2.5vl (strong OCR and table reading)
//   - llava:1.6
//   - llama3.2-vision
func NewOllama(baseURL string, modelName string, timeout time.Duration) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "qwen2.5vl"
	}
	if timeout <= 0 {
		// Vision models on local hardware are slow
		timeout = 120 * time.Second
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url: %w", err)
	}

	return &Ollama{
		client:  ollama.NewClient(parsedURL, &http.Client{Timeout: timeout}),
		model:   modelName,
		timeout: timeout,
	}, nil
}

// Analyze asks the Ollama model to read the document the way the given model would
func (o *Ollama) Analyze(ctx context.Context, data []byte, modelID string, contentType string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	imageData, _, err := prepareImageData(data, contentType)
	if err != nil {
		return nil, NewError(modelID, err)
	}

	stream := false
	req := &ollama.ChatRequest{
		Model:  o.model,
		Stream: &stream,
		Format: json.RawMessage(`"json"`),
		Messages: []ollama.Message{
			{
				Role:    "system",
				Content: "You are an expert at reading invoices. You must carefully read all text in images and extract accurate information.",
			},
			{
				Role:    "user",
				Content: promptForModel(modelID),
				Images:  []ollama.ImageData{imageData},
			},
		},
	}

	var answer strings.Builder
	err = o.client.Chat(ctx, req, func(resp ollama.ChatResponse) error {
		answer.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, NewError(modelID, fmt.Errorf("calling ollama API: %w", err))
	}

	result, err := parseResultJSON(answer.String(), modelID)
	if err != nil {
		return nil, NewError(modelID, fmt.Errorf("parsing analysis result: %w", err))
	}
	return result, nil
}

// Close is a no-op for the HTTP based client
func (o *Ollama) Close() error {
	return nil
}
