package constants

import "time"

// RFC 3339 date-time format string.
// Use this format for all date-time serialization and communication with external systems.
const RFC3339DateTimeFormat = "2006-01-02T15:04:05Z07:00"

const (
	// DefaultMaxAttachmentBytes is the decoded size ceiling for a waitlist attachment.
	DefaultMaxAttachmentBytes = 5 << 20

	// DefaultMaxRequestBodyBytes leaves room for a base64-encoded attachment plus the JSON envelope.
	DefaultMaxRequestBodyBytes = 8 << 20

	// DefaultAttachmentContentType is used when a file is submitted without a MIME type.
	DefaultAttachmentContentType = "application/octet-stream"

	// WaitlistAttachmentPrefix namespaces waitlist uploads inside the object store.
	WaitlistAttachmentPrefix = "waitlist-attachments"
)

const (
	DefaultSessionCookieName = "app_session_id"
	DefaultSessionTTL        = 30 * 24 * time.Hour
)

// DefaultRequestTimeout bounds a single request when REQUEST_TIMEOUT is unset.
const DefaultRequestTimeout = 30 * time.Second
