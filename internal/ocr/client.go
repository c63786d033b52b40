// Package ocr provides the structured-OCR client. Like the LLM client it is
// circuit-broken: a down OCR service degrades the pipeline to filename-only
// classification instead of failing artifacts outright.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/gmsas95/dealintake/internal/config"
	"github.com/gmsas95/dealintake/internal/metrics"
	"github.com/gmsas95/dealintake/internal/structured"
)

// Provider extracts text and structured data from a source document.
type Provider interface {
	Extract(ctx context.Context, req Request) (*structured.Payload, error)
}

// Request identifies the document to process.
type Request struct {
	DocumentID  string `json:"document_id"`
	SourceTable string `json:"source_table"`
	SourceID    string `json:"source_id"`
	Filename    string `json:"filename"`
}

// Client is the HTTP structured-OCR provider.
type Client struct {
	cfg     config.OCRConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*structured.Payload]
}

// NewClient creates an OCR client from configuration.
func NewClient(cfg config.OCRConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 90
	}

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker[*structured.Payload](gobreaker.Settings{
			Name:    "ocr",
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Extract runs the document through the OCR service and decodes the
// structured payload.
func (c *Client) Extract(ctx context.Context, req Request) (*structured.Payload, error) {
	payload, err := c.breaker.Execute(func() (*structured.Payload, error) {
		return c.doExtract(ctx, req)
	})
	if err != nil {
		metrics.OCRRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.OCRRequests.WithLabelValues("ok").Inc()
	return payload, nil
}

func (c *Client) doExtract(ctx context.Context, req Request) (*structured.Payload, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/v1/extract", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OCR error (status %d): %s", resp.StatusCode, string(raw))
	}

	payload, err := structured.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode OCR payload: %w", err)
	}
	return payload, nil
}
