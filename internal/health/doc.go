// Package health builds health reports for probed dependencies and serves
// the status endpoints of the service.
//
// A report is derived from one ProbeOutcome. The check passes only for a
// 2xx response code; a missing code always fails. The timeout flag and
// the overall status follow from the same outcome, so a report is a pure
// function of its input:
//
//	builder := health.NewBuilder(health.ReleaseInfo{
//	    Version:   "status-pr-439",
//	    ReleaseID: "13860",
//	    CommitID:  "f9a43166194ef761428a3507ae0e5244440a8bb0",
//	})
//
//	code := 200
//	body := builder.Render(health.ProbeOutcome{
//	    ResponseCode: &code,
//	    RequestURL:   "https://backend.internal/healthcheck",
//	    Revision:     "12",
//	})
//
// # Endpoints
//
// Handler exposes:
//
//   - /_ping    release identity only, no probe
//   - /_status  full report, probing the backend
//   - /healthz  liveness
//   - /readyz   readiness
//
// The report is written with Content-Type application/json and HTTP 200
// regardless of the verdict; consumers read the status field.
package health
