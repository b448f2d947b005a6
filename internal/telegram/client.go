// Package telegram dispatches error-report documents to a bot chat.
//
// The relay depends on exactly one bot API call: sendDocument with a
// multipart file upload. The response body is carried back on failure so
// operators can see what the bot API objected to.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"updaterelay/internal/catalog"
	"updaterelay/internal/models"
)

// Dispatcher sends a serialized error batch. Satisfied by *Client; handlers
// depend on the interface so tests can substitute a recorder.
type Dispatcher interface {
	SendDocument(ctx context.Context, filename string, payload []byte) error
}

// Client talks to the Telegram bot API.
type Client struct {
	baseURL    string
	token      string
	chatID     string
	httpClient *http.Client
}

// NewClient creates a dispatch client from the Telegram configuration. The
// configured timeout bounds every upload.
func NewClient(cfg models.TelegramConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.APIBaseURL, "/"),
		token:      cfg.Token,
		chatID:     cfg.ChatID,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// SendDocument uploads the payload as a named document to the configured
// chat. Transport failures and non-200 responses come back as
// *catalog.UpstreamError so the handler layer maps them uniformly.
func (c *Client) SendDocument(ctx context.Context, filename string, payload []byte) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("chat_id", c.chatID); err != nil {
		return &catalog.UpstreamError{Op: "send document", Err: err}
	}
	part, err := writer.CreateFormFile("document", filename)
	if err != nil {
		return &catalog.UpstreamError{Op: "send document", Err: err}
	}
	if _, err := part.Write(payload); err != nil {
		return &catalog.UpstreamError{Op: "send document", Err: err}
	}
	if err := writer.Close(); err != nil {
		return &catalog.UpstreamError{Op: "send document", Err: err}
	}

	url := fmt.Sprintf("%s/bot%s/sendDocument", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return &catalog.UpstreamError{Op: "send document", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &catalog.UpstreamError{Op: "send document", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &catalog.UpstreamError{
			Op:  "send document",
			Err: fmt.Errorf("telegram API error: %s: %s", resp.Status, string(respBody)),
		}
	}

	return nil
}
