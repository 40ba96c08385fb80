// Package api exposes review sessions and statistics over HTTP. It translates
// requests into session and sync operations and maps their errors onto
// status codes without leaking internal details.
package api
