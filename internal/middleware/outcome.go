package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorCodeSystem is the coding system of OperationOutcome error codes.
const ErrorCodeSystem = "https://fhir.nhs.uk/STU3/ValueSet/Spine-ErrorOrWarningCode-1"

// OperationOutcome is a FHIR error document.
type OperationOutcome struct {
	ResourceType string  `json:"resourceType"`
	Issue        []Issue `json:"issue"`
}

// Issue describes one problem.
type Issue struct {
	Severity    string       `json:"severity"`
	Code        string       `json:"code"`
	Details     IssueDetails `json:"details"`
	Diagnostics string       `json:"diagnostics"`
}

// IssueDetails carries the coded error.
type IssueDetails struct {
	Coding []Coding `json:"coding"`
}

// Coding is one coded value.
type Coding struct {
	System  string `json:"system"`
	Code    string `json:"code"`
	Display string `json:"display"`
}

// outcomeKind describes the OperationOutcome sent for an HTTP status.
type outcomeKind struct {
	issueCode string
	code      string
	display   string
}

var outcomeKinds = map[int]outcomeKind{
	http.StatusUnauthorized:        {issueCode: "forbidden", code: "ACCESS_DENIED", display: "Access denied"},
	http.StatusNotFound:            {issueCode: "not-found", code: "NOT_IMPLEMENTED", display: "Not implemented"},
	http.StatusMethodNotAllowed:    {issueCode: "not-supported", code: "NOT_IMPLEMENTED", display: "Not implemented"},
	http.StatusTooManyRequests:     {issueCode: "throttled", code: "TOO_MANY_REQUESTS", display: "Too many requests"},
	http.StatusInternalServerError: {issueCode: "exception", code: "INTERNAL_SERVER_ERROR", display: "Internal server error"},
}

// NewOperationOutcome builds the error document for an HTTP status.
func NewOperationOutcome(status int, diagnostics string) OperationOutcome {
	kind, ok := outcomeKinds[status]
	if !ok {
		kind = outcomeKinds[http.StatusInternalServerError]
	}

	return OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue: []Issue{{
			Severity: "error",
			Code:     kind.issueCode,
			Details: IssueDetails{Coding: []Coding{{
				System:  ErrorCodeSystem,
				Code:    kind.code,
				Display: kind.display,
			}}},
			Diagnostics: diagnostics,
		}},
	}
}

// WriteOutcome writes an OperationOutcome with the given status.
func WriteOutcome(w http.ResponseWriter, status int, diagnostics string) {
	body, err := json.Marshal(NewOperationOutcome(status, diagnostics))
	if err != nil {
		body = []byte(`{"resourceType":"OperationOutcome"}`)
	}

	w.Header().Set(HeaderContentType, ContentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
