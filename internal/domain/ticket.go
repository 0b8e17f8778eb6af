package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. Transitions are
// not enforced; any status may overwrite any other.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Valid reports whether the status is one of the known values.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Valid reports whether the priority is one of the known values.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests.
//
// CreatedBy is always present and taken from the acting user at creation
// time. AssignedTo is best-effort: an assignee id that resolves to no
// known user leaves the ticket unassigned rather than failing. Comments
// live in a side table and are attached on single-ticket reads only.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	CreatedBy   UserRef
	AssignedTo  *UserRef
	Comments    []Comment
	Attachments []Attachment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TicketStats aggregates ticket counts for the dashboard.
type TicketStats struct {
	Total      int
	ByStatus   map[TicketStatus]int
	ByPriority map[TicketPriority]int
}
