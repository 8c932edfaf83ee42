package types

import (
	"context"
	"time"
)

const (
	RsvpStatusRequested = "requested"
	RsvpStatusApproved  = "approved"
	RsvpStatusAttended  = "attended"
)

// EventRsvp represents one participant's RSVP on one event. The table is keyed
// (eventId, userId) so the one-RSVP-per-pair invariant is enforced by the
// store itself. Status is derived from the timestamps on every read and never
// stored: approvedAt set means approved, attendedAt set means attended, and
// attendedAt is only ever written when approvedAt already exists.
type EventRsvp struct {
	ID          string     `json:"id" dynamodbav:"id"`
	EventID     string     `json:"event_id" dynamodbav:"eventId"`
	UserID      string     `json:"user_id" dynamodbav:"userId"`
	Status      string     `json:"status" dynamodbav:"-"`
	RequestedAt time.Time  `json:"requested_at" dynamodbav:"requestedAt"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty" dynamodbav:"approvedAt,omitempty"`
	AttendedAt  *time.Time `json:"attended_at,omitempty" dynamodbav:"attendedAt,omitempty"`
}

// DerivedStatus computes the lifecycle state from the transition timestamps.
func (r *EventRsvp) DerivedStatus() string {
	if r.AttendedAt != nil {
		return RsvpStatusAttended
	}
	if r.ApprovedAt != nil {
		return RsvpStatusApproved
	}
	return RsvpStatusRequested
}

// PendingEventRsvp pairs a pending RSVP with its requester's profile so
// organizers can triage by reputation.
type PendingEventRsvp struct {
	EventRsvp
	Profile *Profile `json:"profile,omitempty"`
}

type EventRsvpServiceInterface interface {
	RequestJoin(ctx context.Context, dynamodbClient DynamoDBAPI, eventId, participantId string) (*EventRsvp, error)
	GetEventRsvpByPk(ctx context.Context, dynamodbClient DynamoDBAPI, eventId, userId string) (*EventRsvp, error)
	GetEventRsvpsByEventID(ctx context.Context, dynamodbClient DynamoDBAPI, eventId string) ([]EventRsvp, error)
	GetEventRsvpsByUserID(ctx context.Context, dynamodbClient DynamoDBAPI, userId string) ([]EventRsvp, error)
	ApproveEventRsvp(ctx context.Context, dynamodbClient DynamoDBAPI, eventId, rsvpId, actingId string) (*EventRsvp, error)
	MarkEventRsvpAttended(ctx context.Context, dynamodbClient DynamoDBAPI, eventId, rsvpId, actingId string) (*EventRsvp, error)
	ListPendingEventRsvps(ctx context.Context, dynamodbClient DynamoDBAPI, eventId, actingId string) ([]PendingEventRsvp, error)
	ListApprovedEventRsvps(ctx context.Context, dynamodbClient DynamoDBAPI, eventId string) ([]EventRsvp, error)
}
