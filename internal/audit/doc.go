// Package audit records who changed what. Every successful author or post
// mutation becomes an Entry carrying the verified token subject; entries
// are queued and written to the audit_logs table by a single goroutine.
package audit
