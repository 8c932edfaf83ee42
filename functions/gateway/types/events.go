package types

import (
	"context"
	"time"
)

const (
	EventVisibilityPublic  = "public"
	EventVisibilityPrivate = "private"
)

// EventInsert represents the data required to create a new event. OrganizerID
// comes from the authenticated wallet session, never from the request body.
// Capacity is a pointer so an explicit `"capacity": 0` is rejected instead of
// being mistaken for absent-means-unlimited.
type EventInsert struct {
	OrganizerID string     `json:"organizer_id" validate:"required,eth_addr" dynamodbav:"organizerId"`
	Title       string     `json:"title" validate:"required" dynamodbav:"title"`
	Description string     `json:"description" validate:"required" dynamodbav:"description"`
	StartTime   time.Time  `json:"start_time" validate:"required" dynamodbav:"startTime"`
	EndTime     *time.Time `json:"end_time,omitempty" dynamodbav:"endTime,omitempty"`
	Location    string     `json:"location,omitempty" dynamodbav:"location,omitempty"`
	Address     string     `json:"address,omitempty" dynamodbav:"address,omitempty"`
	ImageURL    string     `json:"image_url,omitempty" validate:"omitempty,url" dynamodbav:"imageUrl,omitempty"`
	Capacity    *int64     `json:"capacity,omitempty" validate:"omitempty,gt=0" dynamodbav:"capacity,omitempty"`
	Visibility  string     `json:"visibility" validate:"required,oneof=public private" dynamodbav:"visibility"`
}

// Event represents an event in the system. ApprovedCount mirrors the number of
// RSVPs at approved-or-better and is maintained transactionally alongside
// approvals so the capacity gate can be enforced atomically.
type Event struct {
	Id            string     `json:"id" dynamodbav:"id"`
	OrganizerID   string     `json:"organizer_id" dynamodbav:"organizerId"`
	Title         string     `json:"title" dynamodbav:"title"`
	Description   string     `json:"description" dynamodbav:"description"`
	StartTime     time.Time  `json:"start_time" dynamodbav:"startTime"`
	EndTime       *time.Time `json:"end_time,omitempty" dynamodbav:"endTime,omitempty"`
	Location      string     `json:"location,omitempty" dynamodbav:"location,omitempty"`
	Address       string     `json:"address,omitempty" dynamodbav:"address,omitempty"`
	ImageURL      string     `json:"image_url,omitempty" dynamodbav:"imageUrl,omitempty"`
	Capacity      int64      `json:"capacity,omitempty" dynamodbav:"capacity,omitempty"`
	ApprovedCount int64      `json:"approved_count" dynamodbav:"approvedCount"`
	Visibility    string     `json:"visibility" dynamodbav:"visibility"`
	CreatedAt     time.Time  `json:"created_at" dynamodbav:"createdAt"`
	UpdatedAt     time.Time  `json:"updated_at" dynamodbav:"updatedAt"`
}

// EventUpdate represents the descriptive fields an organizer may change after
// creation. Id, OrganizerID and CreatedAt are immutable, Capacity and
// Visibility are fixed at creation in this version.
type EventUpdate struct {
	Title       string     `json:"title,omitempty" dynamodbav:"title,omitempty"`
	Description string     `json:"description,omitempty" dynamodbav:"description,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty" dynamodbav:"startTime,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty" dynamodbav:"endTime,omitempty"`
	Location    string     `json:"location,omitempty" dynamodbav:"location,omitempty"`
	Address     string     `json:"address,omitempty" dynamodbav:"address,omitempty"`
	ImageURL    string     `json:"image_url,omitempty" validate:"omitempty,url" dynamodbav:"imageUrl,omitempty"`
}

const (
	EventSortByStartTime = "start_time"
	EventSortByTitle     = "title"
	EventSortByCreatedAt = "created_at"
)

// EventListFilter narrows and orders a public event listing. Query matches
// title/description, Location matches location/address, both case-insensitive
// substring. Cursor is the opaque token returned by a prior page.
type EventListFilter struct {
	Query    string
	Location string
	SortBy   string
	Cursor   string
	Limit    int32
}

// EventListPage is one page of a restartable listing sequence. NextCursor is
// empty on the final page.
type EventListPage struct {
	Events     []Event `json:"events"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

type EventServiceInterface interface {
	InsertEvent(ctx context.Context, dynamodbClient DynamoDBAPI, event EventInsert) (*Event, error)
	GetEventByID(ctx context.Context, dynamodbClient DynamoDBAPI, id string) (*Event, error)
	UpdateEvent(ctx context.Context, dynamodbClient DynamoDBAPI, id, actingId string, event EventUpdate) (*Event, error)
	ListPublicEvents(ctx context.Context, dynamodbClient DynamoDBAPI, filter EventListFilter) (*EventListPage, error)
	GetEventsByOrganizerID(ctx context.Context, dynamodbClient DynamoDBAPI, organizerId string) ([]Event, error)
}
