package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Generator is the external text-generation collaborator: text in (optionally
// with an image), text out.
type Generator interface {
	Generate(ctx context.Context, text, imageBase64 string) (string, error)
}

// Client talks to the generation service over HTTP.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

type generateReq struct {
	Text        string `json:"text"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

type generateResp struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Generate forwards the query to the generation service. When an image is
// supplied the vision endpoint is tried first; if that call fails for any
// reason the query is retried text-only before an error is surfaced.
func (c *Client) Generate(ctx context.Context, text, imageBase64 string) (string, error) {
	if imageBase64 != "" {
		out, err := c.post(ctx, "/generate/vision", generateReq{Text: text, ImageBase64: imageBase64})
		if err == nil {
			return out, nil
		}
	}
	return c.post(ctx, "/generate/text", generateReq{Text: text})
}

// TriggerIngest asks the generation service to re-ingest its document corpus.
func (c *Client) TriggerIngest(ctx context.Context) error {
	_, err := c.post(ctx, "/ingest", generateReq{})
	return err
}

func (c *Client) post(ctx context.Context, path string, body generateReq) (string, error) {
	if c.HTTP == nil {
		return "", errors.New("rag: http client is nil")
	}

	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	url := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("rag: status %d", resp.StatusCode)
	}

	var decoded generateResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Error != "" {
		return "", errors.New(decoded.Error)
	}
	return decoded.Response, nil
}
