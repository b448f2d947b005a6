package telegram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"updaterelay/internal/catalog"
	"updaterelay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTelegramConfig(baseURL string) models.TelegramConfig {
	return models.TelegramConfig{
		Token:      "123:abc",
		ChatID:     "-100200300",
		APIBaseURL: baseURL,
		Timeout:    5 * time.Second,
	}
}

func TestSendDocument(t *testing.T) {
	var (
		gotPath     string
		gotChatID   string
		gotFilename string
		gotPayload  []byte
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotChatID = r.FormValue("chat_id")

		file, header, err := r.FormFile("document")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		gotPayload, err = io.ReadAll(file)
		require.NoError(t, err)

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(testTelegramConfig(srv.URL))
	err := client.SendDocument(context.Background(), "errors_20240615_083045.json", []byte(`{"errors":[]}`))
	require.NoError(t, err)

	assert.Equal(t, "/bot123:abc/sendDocument", gotPath)
	assert.Equal(t, "-100200300", gotChatID)
	assert.Equal(t, "errors_20240615_083045.json", gotFilename)
	assert.Equal(t, `{"errors":[]}`, string(gotPayload))
}

func TestSendDocument_BotAPIRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(testTelegramConfig(srv.URL))
	err := client.SendDocument(context.Background(), "errors.json", []byte("{}"))

	var upstream *catalog.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "send document", upstream.Op)
	// The bot API's explanation is carried back for the operator.
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendDocument_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := NewClient(testTelegramConfig(srv.URL))
	err := client.SendDocument(context.Background(), "errors.json", []byte("{}"))

	var upstream *catalog.UpstreamError
	require.ErrorAs(t, err, &upstream)
}
