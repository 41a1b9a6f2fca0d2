package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"sentinel/internal/manager"
	"sentinel/internal/middleware"
	"sentinel/internal/models"
)

// PortValue accepts a port as either a JSON number or a string, so a form
// field can be forwarded unchanged.
type PortValue string

func (p *PortValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PortValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("port must be a number or string")
	}
	*p = PortValue(n.String())
	return nil
}

// NewServiceInput represents raw posted values before validation.
type NewServiceInput struct {
	Name        string    `json:"name"`
	IP          string    `json:"ip"`
	Port        PortValue `json:"port"`
	Description string    `json:"description"`
}

// DraftError lists the offending fields of a rejected service draft.
type DraftError struct {
	Details map[string]string
}

func (e *DraftError) Error() string {
	fields := make([]string, 0, len(e.Details))
	for f := range e.Details {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("invalid service draft: %s", strings.Join(fields, ", "))
}

func (e *DraftError) Unwrap() error { return manager.ErrInvalidDraft }

// ValidateServiceDraft sanitizes raw input and checks every field. The
// returned error is a *DraftError wrapping manager.ErrInvalidDraft.
func ValidateServiceDraft(in NewServiceInput) (models.ServiceDraft, error) {
	draft := models.ServiceDraft{
		Name:        middleware.SanitizeString(in.Name),
		IP:          middleware.SanitizeString(in.IP),
		Description: middleware.SanitizeString(in.Description),
	}
	details := map[string]string{}

	raw := strings.TrimSpace(string(in.Port))
	if raw == "" {
		details["port"] = "This field is required"
	} else if port, err := middleware.ValidatePort(raw); err != nil {
		if errors.Is(err, middleware.ErrPortRange) {
			details["port"] = err.Error()
		} else {
			details["port"] = "Port must be a number"
		}
	} else {
		draft.Port = port
	}

	for field, msg := range middleware.ValidateStruct(draft) {
		if _, seen := details[field]; !seen {
			details[field] = msg
		}
	}
	if len(details) > 0 {
		return models.ServiceDraft{}, &DraftError{Details: details}
	}
	return draft, nil
}
