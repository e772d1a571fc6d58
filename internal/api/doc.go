// Package api implements the HTTP REST API for Inkwell.
//
// This package provides:
//   - Public registration, login and paginated author/post listings
//   - Bearer-protected author and post mutations plus the audit trail
//   - The WebSocket upgrade endpoint served by the notification hub
//   - Middleware stack (request ID, logging, recovery, CORS, body limit, auth)
//
// # Notifications
//
// Every successful author or post mutation calls Notifier.Notify after the
// storage write has committed. Delivery is fire-and-forget: the HTTP
// response never depends on who, if anyone, received the notification.
//
// # Security
//
// Protected routes pass through authMiddleware, which verifies the HS512
// bearer token and stores its subject (the user id) in the request context.
// The WebSocket endpoint is public.
package api
