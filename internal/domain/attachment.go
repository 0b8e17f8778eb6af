package domain

import "time"

// Attachment stores metadata for a file attached to a ticket. Records are
// append-only; the upload itself happens in an external subsystem that
// registers the result here, with no transactional linkage to the ticket.
type Attachment struct {
	ID         string
	Name       string
	URL        string
	Size       int64
	Type       string
	UploadedAt time.Time
}
