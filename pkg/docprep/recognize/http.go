package recognize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cognicore/docprep/pkg/docprep/internalerr"
)

// HTTPClient calls an external NER service:
//
//	POST {"text": "..."}  →  {"entities": [{"start": 0, "end": 3, "label": "PER"}]}
//
// Offsets in the response are byte offsets into the posted text.
type HTTPClient struct {
	URL    string
	APIKey string

	HTTPClient *http.Client
}

type nerRequest struct {
	Text string `json:"text"`
}

type nerEntity struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
}

type nerResponse struct {
	Entities []nerEntity `json:"entities"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Entities implements Recognizer.
func (c *HTTPClient) Entities(ctx context.Context, text string) ([]Span, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("ner: service URL required: %w", internalerr.ErrRecognizer)
	}
	body, err := json.Marshal(nerRequest{Text: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("ner request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ner: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var payload nerResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("ner: decode response: %w", err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("ner error: %s", payload.Error.Message)
	}

	spans := make([]Span, 0, len(payload.Entities))
	for _, e := range payload.Entities {
		if e.Start < 0 || e.End > len(text) || e.Start >= e.End {
			return nil, fmt.Errorf("ner: entity [%d,%d) out of range for %d bytes", e.Start, e.End, len(text))
		}
		spans = append(spans, Span{Start: e.Start, End: e.End, Kind: ParseKind(e.Label)})
	}
	return spans, nil
}

// Ping checks that the service answers. Used at startup so an unreachable
// recognizer fails the run before any chunk is dispatched.
func (c *HTTPClient) Ping(ctx context.Context) error {
	if _, err := c.Entities(ctx, "ping"); err != nil {
		return fmt.Errorf("%v: %w", err, internalerr.ErrRecognizer)
	}
	return nil
}

func (c *HTTPClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

// HTTPFactory returns a Factory whose recognizers share url and timeout but
// not their http.Client.
func HTTPFactory(url, apiKey string, timeout time.Duration) Factory {
	return func() (Recognizer, error) {
		if url == "" {
			return nil, fmt.Errorf("ner: service URL required: %w", internalerr.ErrRecognizer)
		}
		return &HTTPClient{URL: url, APIKey: apiKey, HTTPClient: &http.Client{Timeout: timeout}}, nil
	}
}
