package analysis

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/go-autorest/autorest"
)

const (
	// DefaultAzureAPIVersion is the Document Intelligence REST API version used when none is configured
	DefaultAzureAPIVersion = "2024-11-30"

	operationLocationHeader = "Operation-Location"
)

// Azure implements the Analyzer interface using Azure AI Document Intelligence
type Azure struct {
	client       autorest.Client
	endpoint     string
	apiVersion   string
	timeout      time.Duration
	pollInterval time.Duration
}

// AzureOption customizes an Azure analyzer
type AzureOption func(*Azure)

// WithTimeout bounds a whole analysis call, submission and polling included
func WithTimeout(timeout time.Duration) AzureOption {
	return func(a *Azure) {
		if timeout > 0 {
			a.timeout = timeout
		}
	}
}

// WithPollInterval sets the delay between operation status checks
func WithPollInterval(interval time.Duration) AzureOption {
	return func(a *Azure) {
		if interval > 0 {
			a.pollInterval = interval
		}
	}
}

// NewAzure creates a new Azure Document Intelligence analyzer
func NewAzure(endpoint, apiKey, apiVersion string, opts ...AzureOption) (*Azure, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("azure endpoint is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("azure api key is required")
	}
	if apiVersion == "" {
		apiVersion = DefaultAzureAPIVersion
	}

	client := autorest.NewClientWithUserAgent("invoice-extractor")
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)

	a := &Azure{
		client:       client,
		endpoint:     strings.TrimSuffix(endpoint, "/"),
		apiVersion:   apiVersion,
		timeout:      2 * time.Minute,
		pollInterval: time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// analyzeOperation is the body returned when polling an analyze operation
type analyzeOperation struct {
	Status        string          `json:"status"`
	AnalyzeResult *Result         `json:"analyzeResult,omitempty"`
	Error         *operationError `json:"error,omitempty"`
}

type operationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Analyze submits the document and polls the operation until it completes
func (a *Azure) Analyze(ctx context.Context, data []byte, modelID string, contentType string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	operationURL, err := a.beginAnalyze(ctx, data, modelID, contentType)
	if err != nil {
		return nil, NewError(modelID, err)
	}

	result, err := a.pollResult(ctx, operationURL)
	if err != nil {
		return nil, NewError(modelID, err)
	}
	if result.ModelID == "" {
		result.ModelID = modelID
	}
	return result, nil
}

// beginAnalyze submits the document and returns the operation URL to poll
func (a *Azure) beginAnalyze(ctx context.Context, data []byte, modelID string, contentType string) (string, error) {
	pathParameters := map[string]interface{}{
		"modelId": autorest.Encode("path", modelID),
	}
	queryParameters := map[string]interface{}{
		"api-version": a.apiVersion,
	}

	req, err := autorest.Prepare((&http.Request{}).WithContext(ctx),
		autorest.AsContentType(contentType),
		autorest.AsPost(),
		autorest.WithBaseURL(a.endpoint),
		autorest.WithPathParameters("/documentintelligence/documentModels/{modelId}:analyze", pathParameters),
		autorest.WithQueryParameters(queryParameters),
		autorest.WithBytes(&data),
		a.client.WithAuthorization())
	if err != nil {
		return "", fmt.Errorf("preparing analyze request: %w", err)
	}

	resp, err := a.client.Send(req)
	if err != nil {
		return "", fmt.Errorf("sending analyze request: %w", err)
	}

	err = autorest.Respond(resp,
		autorest.WithErrorUnlessStatusCode(http.StatusAccepted),
		autorest.ByClosing())
	if err != nil {
		return "", fmt.Errorf("analyze request rejected: %w", err)
	}

	location := resp.Header.Get(operationLocationHeader)
	if location == "" {
		return "", fmt.Errorf("analyze response has no %s header", operationLocationHeader)
	}
	return location, nil
}

// pollResult waits for the operation to leave the running states
func (a *Azure) pollResult(ctx context.Context, operationURL string) (*Result, error) {
	for {
		op, err := a.getOperation(ctx, operationURL)
		if err != nil {
			return nil, err
		}

		switch strings.ToLower(op.Status) {
		case "succeeded":
			if op.AnalyzeResult == nil {
				return &Result{}, nil
			}
			return op.AnalyzeResult, nil
		case "failed", "canceled":
			if op.Error != nil {
				return nil, fmt.Errorf("operation %s: %s: %s", op.Status, op.Error.Code, op.Error.Message)
			}
			return nil, fmt.Errorf("operation %s", op.Status)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for analysis: %w", ctx.Err())
		case <-time.After(a.pollInterval):
		}
	}
}

func (a *Azure) getOperation(ctx context.Context, operationURL string) (*analyzeOperation, error) {
	req, err := autorest.Prepare((&http.Request{}).WithContext(ctx),
		autorest.AsGet(),
		autorest.WithBaseURL(operationURL),
		a.client.WithAuthorization())
	if err != nil {
		return nil, fmt.Errorf("preparing poll request: %w", err)
	}

	resp, err := a.client.Send(req)
	if err != nil {
		return nil, fmt.Errorf("polling analysis: %w", err)
	}

	var op analyzeOperation
	err = autorest.Respond(resp,
		autorest.WithErrorUnlessStatusCode(http.StatusOK),
		autorest.ByUnmarshallingJSON(&op),
		autorest.ByClosing())
	if err != nil {
		return nil, fmt.Errorf("reading analysis status: %w", err)
	}
	return &op, nil
}

// Close is a no-op, the autorest client holds no resources
func (a *Azure) Close() error {
	return nil
}
