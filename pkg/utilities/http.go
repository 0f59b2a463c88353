package utilities

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Fields any    `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: msg})
}

// WriteValidationError writes 422 with per-field messages when err carries them.
func WriteValidationError(w http.ResponseWriter, err error) {
	var fields validation.Errors
	if errors.As(err, &fields) {
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "validation failed", Fields: fields})
		return
	}
	WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
}

// DecodeJSON reads a bounded JSON body into v.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// PathID parses the positive integer path value name.
func PathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, validation.Errors{name: errors.New("must be a positive integer")}
	}
	return id, nil
}

// Page is an offset/limit window over a list.
type Page struct {
	Skip  int
	Limit int
}

const (
	DefaultLimit = 100
	MaxLimit     = 100
)

// ParsePage reads skip (>= 0, default 0) and limit (1..100, default 100).
func ParsePage(r *http.Request) (Page, error) {
	q := r.URL.Query()
	p := Page{Skip: 0, Limit: DefaultLimit}
	errs := validation.Errors{}
	if raw := q.Get("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs["skip"] = errors.New("must be an integer greater than or equal to 0")
		} else {
			p.Skip = n
		}
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxLimit {
			errs["limit"] = fmt.Errorf("must be an integer between 1 and %d", MaxLimit)
		} else {
			p.Limit = n
		}
	}
	if len(errs) > 0 {
		return Page{}, errs
	}
	return p, nil
}

// OptionalQueryID parses an optional positive integer query parameter.
func OptionalQueryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, validation.Errors{name: errors.New("must be a positive integer")}
	}
	return &id, nil
}

// NotBlank rejects a present but empty value. A nil pointer passes, so it
// suits optional patch fields where validation.Required does not.
var NotBlank = validation.By(func(v interface{}) error {
	v, isNil := validation.Indirect(v)
	if isNil {
		return nil
	}
	if s, ok := v.(string); ok && s == "" {
		return errors.New("cannot be blank")
	}
	return nil
})
