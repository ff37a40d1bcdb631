package health

import (
	"bytes"
	"encoding/json"
)

// Status is the verdict of a check or of a whole report.
type Status string

const (
	// StatusPass indicates the dependency answered with a 2xx code.
	StatusPass Status = "pass"
	// StatusFail indicates anything else, including no answer at all.
	StatusFail Status = "fail"
)

// CheckHealthcheckService is the name of the check fed by the backend
// healthcheck callout.
const CheckHealthcheckService = "healthcheckService:status"

// Timeout flags are strings on the wire, not JSON booleans.
const (
	timeoutTrue  = "true"
	timeoutFalse = "false"
)

// ProbeOutcome is what the hosting gateway knows about one probe.
type ProbeOutcome struct {
	// ResponseCode is nil if the call never completed.
	ResponseCode *int `json:"responseCode"`

	// ResponseBody is the raw payload, nil if there was none.
	ResponseBody *string `json:"responseBody"`

	// RequestURL identifies the probed endpoint.
	RequestURL string `json:"requestUrl"`

	// CallFailed is true if the outbound call itself errored.
	CallFailed bool `json:"callFailed"`

	// Revision identifies the proxy revision handling the request.
	Revision string `json:"revision"`
}

// ReleaseInfo identifies the deployed release.
type ReleaseInfo struct {
	Version   string
	ReleaseID string
	CommitID  string
}

// Links holds hypermedia links of a check.
type Links struct {
	Self string `json:"self"`
}

// CheckResult is one entry of a named check.
type CheckResult struct {
	Status       Status  `json:"status"`
	Timeout      string  `json:"timeout"`
	ResponseCode *int    `json:"responseCode"`
	Outcome      *string `json:"outcome"`
	Links        Links   `json:"links"`
}

// Report is the health report document. Field order is the wire order.
type Report struct {
	Status    Status                   `json:"status"`
	Version   string                   `json:"version"`
	Revision  string                   `json:"revision"`
	ReleaseID string                   `json:"releaseId"`
	CommitID  string                   `json:"commitId"`
	Checks    map[string][]CheckResult `json:"checks,omitempty"`
}

// Builder turns probe outcomes into reports. A Builder holds no mutable
// state and may be shared between goroutines.
type Builder struct {
	release ReleaseInfo
}

// NewBuilder creates a report builder for the given release.
func NewBuilder(release ReleaseInfo) *Builder {
	return &Builder{release: release}
}

// Release returns the release identity stamped on every report.
func (b *Builder) Release() ReleaseInfo {
	return b.release
}

// CheckStatus derives the verdict of a single probe.
func CheckStatus(outcome ProbeOutcome) Status {
	if outcome.ResponseCode == nil {
		return StatusFail
	}
	if *outcome.ResponseCode/100 == 2 {
		return StatusPass
	}
	return StatusFail
}

// TimeoutFlag reports whether the probe timed out, as the wire string.
func TimeoutFlag(outcome ProbeOutcome) string {
	if outcome.ResponseCode == nil && outcome.CallFailed {
		return timeoutTrue
	}
	return timeoutFalse
}

// Aggregate returns StatusFail if any check failed, StatusPass otherwise.
func Aggregate(checks map[string][]CheckResult) Status {
	for _, results := range checks {
		for _, result := range results {
			if result.Status != StatusPass {
				return StatusFail
			}
		}
	}
	return StatusPass
}

// Build derives the report for one probe outcome.
func (b *Builder) Build(outcome ProbeOutcome) *Report {
	result := CheckResult{
		Status:       CheckStatus(outcome),
		Timeout:      TimeoutFlag(outcome),
		ResponseCode: copyInt(outcome.ResponseCode),
		Outcome:      copyString(outcome.ResponseBody),
		Links:        Links{Self: outcome.RequestURL},
	}

	checks := map[string][]CheckResult{
		CheckHealthcheckService: {result},
	}

	return &Report{
		Status:    Aggregate(checks),
		Version:   b.release.Version,
		Revision:  outcome.Revision,
		ReleaseID: b.release.ReleaseID,
		CommitID:  b.release.CommitID,
		Checks:    checks,
	}
}

// Ping returns the identity-only report served by the ping endpoint.
func (b *Builder) Ping(revision string) *Report {
	return &Report{
		Status:    StatusPass,
		Version:   b.release.Version,
		Revision:  revision,
		ReleaseID: b.release.ReleaseID,
		CommitID:  b.release.CommitID,
	}
}

// Render builds the report and serializes it to JSON.
func (b *Builder) Render(outcome ProbeOutcome) []byte {
	return Encode(b.Build(outcome))
}

// fallbackReport is served if encoding fails.
var fallbackReport = []byte(`{"status":"fail"}`)

// Encode serializes a report without HTML escaping and without the
// trailing newline added by json.Encoder.
func Encode(report *Report) []byte {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(report); err != nil {
		return fallbackReport
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
