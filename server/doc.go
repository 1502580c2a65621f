// Package server serves decoded telemetry as JSON for dashboard front ends.
//
// Routes:
//
//	GET    /api/v1/tables                    row counts and column catalog per kind
//	GET    /api/v1/tables/{kind}/rows        columns=a,b basis= min= max= all=
//	GET    /api/v1/tables/{kind}/span        basis=
//	GET    /api/v1/window                    active time window
//	PUT    /api/v1/window                    {"basis":"virtual_time","min":0,"max":10}
//	DELETE /api/v1/window                    reset to the full window
//	GET    /metrics                          prometheus
//
// Row queries without min/max use the active window. Errors are JSON objects
// with a single "error" field: 404 for an unknown kind, 400 for bad input.
package server
