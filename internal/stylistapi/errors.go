package stylistapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const maxBodySnippet = 300

// Failure is the single error type returned by every Client operation. A
// transport error and a non-2xx response both end up here; Status is 0 when
// no response was received.
type Failure struct {
	Op      string
	Status  int
	Message string
	Detail  string
	Err     error
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return f.Message
	}
	if f.Op != "" {
		return f.Op + " failed"
	}
	return "remote request failed"
}

func (f *Failure) Unwrap() error { return f.Err }

// Network reports whether the request never got a response.
func (f *Failure) Network() bool { return f.Status == 0 }

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

type operation struct {
	name     string
	fallback string
}

var (
	opUpload      = operation{"upload", "Failed to upload file"}
	opAnalyze     = operation{"analyze", "Failed to analyze clothing"}
	opRecord      = operation{"create record", "Failed to save item to database"}
	opIndex       = operation{"create index entry", "Failed to save item to search index"}
	opSearch      = operation{"search candidates", "Failed to search style candidates"}
	opPreferences = operation{"extract preferences", "Failed to extract preferences"}
	opScore       = operation{"score outfit", "Failed to get best outfit"}
	opList        = operation{"list items", "Failed to fetch wardrobe items"}
	opItem        = operation{"get item", "Failed to fetch item"}
	opImage       = operation{"image", "Failed to fetch image"}
)

func invalidInput(op operation, message string) *Failure {
	return &Failure{Op: op.name, Message: fmt.Sprintf("%s: %s", op.fallback, message)}
}

func networkFailure(op operation, err error) *Failure {
	return &Failure{Op: op.name, Message: fmt.Sprintf("%s: %v", op.fallback, err), Err: err}
}

// rejection turns a non-2xx response into a Failure. The service normally
// answers {"detail": ...} where detail is a string or a list of validation
// errors; anything else is reported with the status and a body snippet.
func rejection(op operation, status int, body []byte) *Failure {
	f := &Failure{Op: op.name, Status: status}
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		text := snippet(body)
		if text == "" {
			text = http.StatusText(status)
		}
		f.Detail = text
		f.Message = strings.TrimSpace(fmt.Sprintf("Request failed with status %d: %s", status, text))
		return f
	}
	detail := detailText(envelope.Detail)
	if detail == "" {
		f.Message = fmt.Sprintf("%s (status %d)", op.fallback, status)
		return f
	}
	f.Detail = detail
	f.Message = detail
	return f
}

func detailText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, e := range list {
			if m := strings.TrimSpace(e.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return snippet(raw)
}

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxBodySnippet {
		text = text[:maxBodySnippet] + "..."
	}
	return text
}
