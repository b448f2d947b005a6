// Package report reassembles bracketed form fields into a structured error
// batch.
//
// Clients submit reports as form-encoded arrays (errors[0][type],
// errors[0][line], ...). Decoding is two-staged: the flat key set is first
// bucketed by numeric index, then the buckets are emitted in ascending
// index order. Non-contiguous and out-of-order indices are tolerated;
// trusting array-like key contiguity is exactly the fragility this layout
// avoids.
package report

import (
	"errors"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"time"

	"updaterelay/internal/models"
)

// ErrNoFormData is returned when the form contains no errors[...] keys at
// all. Handlers map it to HTTP 400.
var ErrNoFormData = errors.New("no form data received")

// keyPattern matches one bracketed report field, capturing index and field
// name. Unrecognized keys are ignored rather than rejected; clients ship
// extra fields across versions.
var keyPattern = regexp.MustCompile(`^errors\[([0-9]+)\]\[([a-z_]+)\]$`)

// Client field names inside the brackets.
const (
	fieldType    = "type"
	fieldMessage = "log_message"
	fieldFile    = "log_extra"
	fieldLine    = "line"
	fieldDate    = "date"
)

// Format builds an ErrorBatch from decoded form values, stamped with the
// given server clock. Missing fields default to empty strings; a report
// with an unusable date simply has no human_date.
func Format(form url.Values, now time.Time) (*models.ErrorBatch, error) {
	indexed := make(map[int]map[string]string)

	for key, values := range form {
		m := keyPattern.FindStringSubmatch(key)
		if m == nil || len(values) == 0 {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		fields, ok := indexed[idx]
		if !ok {
			fields = make(map[string]string)
			indexed[idx] = fields
		}
		fields[m[2]] = values[0]
	}

	if len(indexed) == 0 {
		return nil, ErrNoFormData
	}

	indices := make([]int, 0, len(indexed))
	for idx := range indexed {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	reports := make([]models.ErrorReport, 0, len(indices))
	for _, idx := range indices {
		fields := indexed[idx]
		r := models.ErrorReport{
			Type:    fields[fieldType],
			Message: fields[fieldMessage],
			File:    fields[fieldFile],
			Line:    fields[fieldLine],
			Date:    fields[fieldDate],
		}
		r.DeriveHumanDate()
		reports = append(reports, r)
	}

	return models.NewErrorBatch(reports, form.Get("version"), form.Get("revision"), now), nil
}
