package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/farhanmajid/bazario-backend/pkg/enums"
)

// OrderCreatedEvent signals a new order split across fulfilling companies.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID   `json:"order_id"`
	UserID     uuid.UUID   `json:"user_id"`
	CompanyIDs []uuid.UUID `json:"company_ids"`
	TotalCents int64       `json:"total_cents"`
}

// OrderUpdatedEvent is emitted after a reconcile pass rewrites the line set.
type OrderUpdatedEvent struct {
	OrderID      uuid.UUID `json:"order_id"`
	UserID       uuid.UUID `json:"user_id"`
	LinesUpdated int       `json:"lines_updated"`
	LinesCreated int       `json:"lines_created"`
	LinesDeleted int       `json:"lines_deleted"`
	TotalCents   int64     `json:"total_cents"`
}

// FulfillmentStatusChangedEvent surfaces per-company status transitions.
type FulfillmentStatusChangedEvent struct {
	OrderID   uuid.UUID              `json:"order_id"`
	CompanyID uuid.UUID              `json:"company_id"`
	Status    enums.FulfillmentState `json:"status"`
	ChangedAt time.Time              `json:"changed_at"`
}

// UserInvitedEvent tells downstream systems to deliver an invitation.
type UserInvitedEvent struct {
	CompanyID uuid.UUID      `json:"company_id"`
	Email     string         `json:"email"`
	Role      enums.UserRole `json:"role"`
	AcceptURL string         `json:"accept_url"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// InvitationAcceptedEvent reports that an invited user finished signup.
type InvitationAcceptedEvent struct {
	CompanyID  uuid.UUID      `json:"company_id"`
	UserID     uuid.UUID      `json:"user_id"`
	Role       enums.UserRole `json:"role"`
	AcceptedAt time.Time      `json:"accepted_at"`
}
