// Package auth issues and validates HMAC-signed access tokens and resolves
// the current user from a request context.
package auth
