package models

import (
	"encoding/json"
	"net/http"
)

// ProblemKind classifies an API error. Each kind has a fixed type URI,
// title and HTTP status.
type ProblemKind string

const (
	KindValidation       ProblemKind = "validation-error"
	KindUnauthorized     ProblemKind = "unauthorized"
	KindTLSRequired      ProblemKind = "tls-required"
	KindNotFound         ProblemKind = "not-found"
	KindConflict         ProblemKind = "conflict"
	KindUnsupportedMedia ProblemKind = "unsupported-media-type"
	KindTooManyRequests  ProblemKind = "too-many-requests"
	KindInternal         ProblemKind = "internal-error"
	KindUnavailable      ProblemKind = "service-unavailable"
)

// ProblemBaseURI prefixes every problem type.
const ProblemBaseURI = "https://api.pollenpaw.app/problems/"

var problemKinds = map[ProblemKind]struct {
	title  string
	status int
}{
	KindValidation:       {"Validation error", http.StatusBadRequest},
	KindUnauthorized:     {"Unauthorized", http.StatusUnauthorized},
	KindTLSRequired:      {"TLS required", http.StatusForbidden},
	KindNotFound:         {"Not found", http.StatusNotFound},
	KindConflict:         {"Conflict", http.StatusConflict},
	KindUnsupportedMedia: {"Unsupported media type", http.StatusUnsupportedMediaType},
	KindTooManyRequests:  {"Too many requests", http.StatusTooManyRequests},
	KindInternal:         {"Internal server error", http.StatusInternalServerError},
	KindUnavailable:      {"Service unavailable", http.StatusServiceUnavailable},
}

// Status is the HTTP status for k. Unknown kinds are 500.
func (k ProblemKind) Status() int {
	if info, ok := problemKinds[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Title is the human-readable summary for k.
func (k ProblemKind) Title() string {
	if info, ok := problemKinds[k]; ok {
		return info.title
	}
	return problemKinds[KindInternal].title
}

// URI is the problem type URI for k.
func (k ProblemKind) URI() string {
	return ProblemBaseURI + string(k)
}

// Problem is an RFC 7807 error body, served as application/problem+json.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError is one invalid field in a validation problem.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewProblem builds a problem of the given kind. traceID is the request ID.
func NewProblem(kind ProblemKind, traceID, detail string) *Problem {
	return &Problem{
		Type:    kind.URI(),
		Title:   kind.Title(),
		Status:  kind.Status(),
		Detail:  detail,
		TraceID: traceID,
	}
}

// WithInstance sets the request path the problem occurred on.
func (p *Problem) WithInstance(path string) *Problem {
	p.Instance = path
	return p
}

// WithErrors attaches field errors.
func (p *Problem) WithErrors(errs []FieldError) *Problem {
	p.Errors = errs
	return p
}

// Write sends the problem with its status and the X-Request-Id header.
func (p *Problem) Write(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		h.Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
