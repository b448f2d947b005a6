package report

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 15, 8, 30, 45, 0, time.UTC)

func TestFormat(t *testing.T) {
	form := url.Values{
		"errors[0][type]":        {"E_WARNING"},
		"errors[0][log_message]": {"disk almost full"},
		"errors[0][log_extra]":   {"cron.php"},
		"errors[0][line]":        {"42"},
		"errors[0][date]":        {"1700000000"},
		"version":                {"2.1.0"},
		"revision":               {"deadbeef"},
	}

	batch, err := Format(form, testNow)
	require.NoError(t, err)

	assert.Equal(t, "2.1.0", batch.Version)
	assert.Equal(t, "deadbeef", batch.Revision)
	assert.Equal(t, "2024-06-15T08:30:45Z", batch.ReceivedAt)

	require.Len(t, batch.Errors, 1)
	r := batch.Errors[0]
	assert.Equal(t, "E_WARNING", r.Type)
	assert.Equal(t, "disk almost full", r.Message)
	assert.Equal(t, "cron.php", r.File)
	assert.Equal(t, "42", r.Line)
	assert.Equal(t, "1700000000", r.Date)
	assert.Equal(t, "2023-11-14 22:13:20", r.HumanDate)
}

func TestFormat_OrdersByIndex(t *testing.T) {
	// Indices arrive out of order and with a gap; output follows ascending
	// numeric index.
	form := url.Values{
		"errors[7][type]": {"third"},
		"errors[2][type]": {"second"},
		"errors[0][type]": {"first"},
	}

	batch, err := Format(form, testNow)
	require.NoError(t, err)

	require.Len(t, batch.Errors, 3)
	assert.Equal(t, "first", batch.Errors[0].Type)
	assert.Equal(t, "second", batch.Errors[1].Type)
	assert.Equal(t, "third", batch.Errors[2].Type)
}

func TestFormat_MissingFieldsDefaultEmpty(t *testing.T) {
	form := url.Values{
		"errors[0][log_message]": {"only a message"},
	}

	batch, err := Format(form, testNow)
	require.NoError(t, err)

	require.Len(t, batch.Errors, 1)
	r := batch.Errors[0]
	assert.Empty(t, r.Type)
	assert.Equal(t, "only a message", r.Message)
	assert.Empty(t, r.Line)
	assert.Empty(t, r.Date)
	assert.Empty(t, r.HumanDate)
}

func TestFormat_IgnoresUnrecognizedKeys(t *testing.T) {
	form := url.Values{
		"errors[0][type]":      {"E_ERROR"},
		"errors[0][UPPER]":     {"rejected by pattern"},
		"errors[not-a-number]": {"ignored"},
		"unrelated":            {"ignored"},
	}

	batch, err := Format(form, testNow)
	require.NoError(t, err)

	require.Len(t, batch.Errors, 1)
	assert.Equal(t, "E_ERROR", batch.Errors[0].Type)
}

func TestFormat_NoReportKeys(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{name: "empty form", form: url.Values{}},
		{name: "only metadata", form: url.Values{"version": {"1.0.0"}}},
		{name: "malformed keys only", form: url.Values{"errors[x][type]": {"bad"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Format(tt.form, testNow)
			assert.ErrorIs(t, err, ErrNoFormData)
		})
	}
}

func TestFormat_BadDateDoesNotSinkBatch(t *testing.T) {
	form := url.Values{
		"errors[0][type]": {"E_NOTICE"},
		"errors[0][date]": {"yesterday"},
		"errors[1][type]": {"E_ERROR"},
		"errors[1][date]": {"1700000000"},
	}

	batch, err := Format(form, testNow)
	require.NoError(t, err)

	require.Len(t, batch.Errors, 2)
	assert.Empty(t, batch.Errors[0].HumanDate)
	assert.Equal(t, "2023-11-14 22:13:20", batch.Errors[1].HumanDate)
}
