package domain

import "time"

// AuditAction names the kind of mutation recorded in the audit trail.
type AuditAction string

const (
	AuditActionAppendEvent         AuditAction = "APPEND_EVENT"
	AuditActionRequestCancellation AuditAction = "REQUEST_CANCELLATION"
	AuditActionApproveCancellation AuditAction = "APPROVE_CANCELLATION"
	AuditActionDeclineCancellation AuditAction = "DECLINE_CANCELLATION"
	AuditActionMarkReturned        AuditAction = "MARK_RETURNED"
)

// AuditEntry is one committed mutation: who changed which order, from what, to what.
type AuditEntry struct {
	OrderID    string
	Actor      string
	Action     AuditAction
	FromStatus Status
	ToStatus   Status
	Location   string
	Note       string
	At         time.Time
}
