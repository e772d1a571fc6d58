// Package auth is the Inkwell authentication layer.
//
// It issues and verifies stateless HS512 bearer tokens, parses the
// Authorization header through a Gate, hashes passwords with Argon2id and
// stores user accounts in SQLite. An optional Redis-backed LoginThrottle
// caps failed login attempts per username.
//
// Every verification failure is reported as *Error with one of three kinds
// (no credential, malformed credential, invalid token). Expired and badly
// signed tokens share KindInvalidToken; the wrapped cause keeps them apart
// for logging.
package auth
