// Package api hosts the HTTP server, middleware, the server-rendered dashboard,
// and the JSON handlers. Notable routes:
//   - GET /healthz / readyz for Kubernetes liveness and readiness checks.
//   - GET /metrics for Prometheus scraping.
//   - GET / and POST /projects for the HTML dashboard and its add-project form.
//   - /api/v1/projects, /api/v1/projects/summary and /api/v1/exports for JSON clients.
package api
