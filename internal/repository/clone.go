package repository

import "github.com/spec-kit/helpdesk/internal/domain"

// Clone helpers keep callers from aliasing store-owned entities: every
// read hands out a copy, every write stores one.

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	clone := *t
	if t.AssignedTo != nil {
		ref := *t.AssignedTo
		clone.AssignedTo = &ref
	}
	if t.Comments != nil {
		clone.Comments = append([]domain.Comment(nil), t.Comments...)
	}
	if t.Attachments != nil {
		clone.Attachments = append([]domain.Attachment(nil), t.Attachments...)
	}
	return &clone
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	return &clone
}

func cloneComment(c *domain.Comment) *domain.Comment {
	clone := *c
	return &clone
}

func cloneComments(comments []*domain.Comment) []domain.Comment {
	result := make([]domain.Comment, 0, len(comments))
	for _, c := range comments {
		result = append(result, *c)
	}
	return result
}
