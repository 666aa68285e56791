// Package api implements the JSON HTTP surface over the assistant and the
// intake/retrieval core.
//
// Endpoints:
//
//	GET  /health              liveness probe
//	GET  /ready               readiness probe (checks the database pool)
//	POST /api/v1/intake       store a patient submission
//	POST /api/v1/search       similarity search over stored records
//	POST /api/v1/chat         one conversational turn through the assistant
//
// All responses are JSON. Errors use a stable shape:
//
//	{"error": {"code": "validation_failed", "message": "..."}}
//
// The middleware stack (outermost first) is recovery, request ID, logging,
// CORS, rate limiting. Handlers map sentinel errors from the core onto HTTP
// status codes and never leak internal error text to clients.
package api
