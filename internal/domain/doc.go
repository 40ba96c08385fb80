// Package domain contains the core vocabulary entities, value objects, and
// domain errors of the application. It is independent of any storage,
// transport, or caching mechanism.
package domain
