// Package scanner is the client for the external pipeline that turns a
// product photo into a barcode string. Image decoding happens entirely on
// the remote side; this client only moves bytes.
package scanner

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client represents a client for the barcode decode service.
type Client struct {
	http *resty.Client
}

// NewClient creates a new client for the barcode decode service.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
	}
}

// Response represents the response from the decode service.
type Response struct {
	Barcode string `json:"barcode"`
	Message string `json:"message,omitempty"`
}

// DecodeBarcode sends the raw image to the decode service and returns the
// detected barcode, or "" when the service found none.
func (c *Client) DecodeBarcode(ctx context.Context, imageData []byte) (string, error) {
	var out Response
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("image", "upload.jpg", bytes.NewReader(imageData)).
		SetResult(&out).
		Post("/decode")
	if err != nil {
		return "", fmt.Errorf("decode request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("decode service returned %s", resp.Status())
	}
	return out.Barcode, nil
}
