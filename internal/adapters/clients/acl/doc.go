// Package acl is the Anti-Corruption Layer between the quote remote and the
// domain.
//
// The remote speaks in its own DTOs (posts with numeric ids and titles).
// Adapters here decode those DTOs, drop what cannot be translated, and hand
// back [domain.Quote] values. External DTOs never leave the package.
//
// # Error Handling Strategy
//
// Every failure is reported as a domain error:
//   - 404 Not Found → [domain.ErrNotFound]
//   - 409 Conflict → [domain.ErrConflict]
//   - 400/422 Validation → [domain.ErrValidation]
//   - 401/403 → [domain.ErrForbidden]
//   - 5xx/Network → [domain.ErrUnavailable]
//   - Undecodable body → [domain.ErrParse]
//
// Client-level errors ([clients.ErrCircuitOpen], [clients.ErrMaxRetriesExceeded])
// are translated to [domain.ErrUnavailable] by [MapHTTPError].
package acl
