package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Uploader uploads an image and returns its hosted URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, content io.Reader) (string, error)
}

// Client uploads images to a hosted image service via multipart POST with an
// upload-preset identifier. The response body carries the hosted URL.
type Client struct {
	uploadURL    string
	uploadPreset string
	httpClient   *http.Client
}

// NewClient creates an image host client.
func NewClient(uploadURL, uploadPreset string, timeout time.Duration) *Client {
	return &Client{
		uploadURL:    uploadURL,
		uploadPreset: uploadPreset,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
}

// Upload posts the image and returns the hosted URL.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("upload_preset", c.uploadPreset); err != nil {
		return "", err
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image host returned status %d", resp.StatusCode)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("image host response decode failed: %w", err)
	}

	if parsed.SecureURL != "" {
		return parsed.SecureURL, nil
	}
	if parsed.URL != "" {
		return parsed.URL, nil
	}
	return "", fmt.Errorf("image host response missing url")
}

// Ensure Client implements Uploader.
var _ Uploader = (*Client)(nil)
