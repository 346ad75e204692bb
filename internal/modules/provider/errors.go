package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured is returned before any network attempt when the
// provider lacks a credential or endpoint.
var ErrNotConfigured = errors.New("provider is not configured")

// BackendError is a non-success response from the upstream API with the
// best human-readable message we could extract from its body.
type BackendError struct {
	Provider string
	Status   int
	Message  string
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s error: %d", e.Provider, e.Status)
}

// backendError builds a BackendError from a raw error body, preferring
// the conventional {"error":{"message":...}} shape.
func backendError(providerName string, status int, body []byte) *BackendError {
	var payload struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != nil && strings.TrimSpace(payload.Error.Message) != "" {
			msg = strings.TrimSpace(payload.Error.Message)
		} else if strings.TrimSpace(payload.Message) != "" {
			msg = strings.TrimSpace(payload.Message)
		}
	}
	return &BackendError{Provider: providerName, Status: status, Message: msg}
}
