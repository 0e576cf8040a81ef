package infra

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// SupabaseError is the error body of both PostgREST and the storage API.
type SupabaseError struct {
	Message   string `json:"message"`
	Code      string `json:"code"`
	Details   string `json:"details"`
	Hint      string `json:"hint"`
	ErrorText string `json:"error"`
}

func (e *SupabaseError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.ErrorText
	}
	if e.Code != "" {
		return e.Code + ": " + msg
	}
	return msg
}

// NewSupabaseClient returns a resty client authenticated with the project key.
// Requests are not retried: a failed write is reported, not repeated.
func NewSupabaseClient(baseURL, key string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("apikey", key).
		SetHeader("Authorization", "Bearer "+key)
}

func handleSupabaseResponse(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	if apiErr, ok := resp.Error().(*SupabaseError); ok && apiErr != nil && (apiErr.Message != "" || apiErr.ErrorText != "") {
		return fmt.Errorf("supabase status %d: %w", resp.StatusCode(), apiErr)
	}
	return fmt.Errorf("supabase status %d: %s", resp.StatusCode(), resp.String())
}
