package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Priority     domain.TicketPriority `json:"priority"`
	AssignedToID *string               `json:"assignedToId"`
}

// UpdateTicketRequest is a partial update. Omitting assignedToId (or
// sending null) clears the assignment; resend the id to keep it. The
// other fields are left unchanged when omitted.
type UpdateTicketRequest struct {
	Title        *string                `json:"title"`
	Description  *string                `json:"description"`
	Status       *domain.TicketStatus   `json:"status"`
	Priority     *domain.TicketPriority `json:"priority"`
	AssignedToID *string                `json:"assignedToId"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// CreateAttachmentRequest registers an upload result.
type CreateAttachmentRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// TicketResponse mirrors the client-facing ticket shape.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	CreatedBy   UserRefResponse       `json:"createdBy"`
	AssignedTo  *UserRefResponse      `json:"assignedTo,omitempty"`
	Comments    []CommentResponse     `json:"comments"`
	Attachments []AttachmentResponse  `json:"attachments"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// CommentResponse mirrors the client-facing comment shape.
type CommentResponse struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	Author    UserRefResponse `json:"author"`
	TicketID  string          `json:"ticketId"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// AttachmentResponse mirrors the client-facing attachment shape.
type AttachmentResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	Type       string    `json:"type"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// ListMeta carries pagination metadata. Total reflects the filtered but
// unpaginated count.
type ListMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// TicketListResponse is the list envelope.
type TicketListResponse struct {
	Data []TicketResponse `json:"data"`
	Meta ListMeta         `json:"meta"`
}

// StatsResponse aggregates ticket counts for the dashboard.
type StatsResponse struct {
	Total      int                           `json:"total"`
	Open       int                           `json:"open"`
	InProgress int                           `json:"inProgress"`
	Resolved   int                           `json:"resolved"`
	Closed     int                           `json:"closed"`
	ByStatus   map[domain.TicketStatus]int   `json:"byStatus"`
	ByPriority map[domain.TicketPriority]int `json:"byPriority"`
}

// NewTicketResponse maps a domain ticket. Comment and attachment slices
// are always present in the JSON, never null.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	comments := make([]CommentResponse, 0, len(ticket.Comments))
	for i := range ticket.Comments {
		comments = append(comments, NewCommentResponse(&ticket.Comments[i]))
	}
	attachments := make([]AttachmentResponse, 0, len(ticket.Attachments))
	for _, att := range ticket.Attachments {
		attachments = append(attachments, NewAttachmentResponse(att))
	}

	resp := TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		CreatedBy:   NewUserRefResponse(ticket.CreatedBy),
		Comments:    comments,
		Attachments: attachments,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
	if ticket.AssignedTo != nil {
		ref := NewUserRefResponse(*ticket.AssignedTo)
		resp.AssignedTo = &ref
	}
	return resp
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		Content:   comment.Content,
		Author:    NewUserRefResponse(comment.Author),
		TicketID:  comment.TicketID,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
}

// NewAttachmentResponse maps a domain attachment.
func NewAttachmentResponse(att domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:         att.ID,
		Name:       att.Name,
		URL:        att.URL,
		Size:       att.Size,
		Type:       att.Type,
		UploadedAt: att.UploadedAt,
	}
}

// NewStatsResponse maps aggregate counts into the dashboard shape.
func NewStatsResponse(stats *domain.TicketStats) StatsResponse {
	return StatsResponse{
		Total:      stats.Total,
		Open:       stats.ByStatus[domain.TicketStatusOpen],
		InProgress: stats.ByStatus[domain.TicketStatusInProgress],
		Resolved:   stats.ByStatus[domain.TicketStatusResolved],
		Closed:     stats.ByStatus[domain.TicketStatusClosed],
		ByStatus:   stats.ByStatus,
		ByPriority: stats.ByPriority,
	}
}
