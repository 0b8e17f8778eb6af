package domain

import "time"

// Comment captures a reply in a ticket thread. Comments are append-only:
// no edit or delete operation exists, and deleting a ticket leaves its
// comments orphaned in the side table.
type Comment struct {
	ID        string
	TicketID  string
	Content   string
	Author    UserRef
	CreatedAt time.Time
	UpdatedAt time.Time
}
