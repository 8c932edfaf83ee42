package types

import (
	"context"
	"time"
)

// Profile represents a wallet identity in the system, keyed by address.
// ReputationScore, EventsApproved, EventsAttended and TotalRequests are a
// cached projection of the address's RSVP history; they are recomputed from
// the RSVP set on every profile read and after every approval or attendance
// transition, never mutated independently.
type Profile struct {
	Address          string    `json:"address" dynamodbav:"address"`
	FullName         string    `json:"full_name" dynamodbav:"fullName"`
	Bio              string    `json:"bio,omitempty" dynamodbav:"bio,omitempty"`
	AvatarURL        string    `json:"avatar_url,omitempty" dynamodbav:"avatarUrl,omitempty"`
	LinkedinURL      string    `json:"linkedin_url,omitempty" dynamodbav:"linkedinUrl,omitempty"`
	TwitterURL       string    `json:"twitter_url,omitempty" dynamodbav:"twitterUrl,omitempty"`
	GithubURL        string    `json:"github_url,omitempty" dynamodbav:"githubUrl,omitempty"`
	ReputationScore  float64   `json:"reputation_score" dynamodbav:"reputationScore"`
	ReputationLabel  string    `json:"reputation_label" dynamodbav:"-"`
	EventsApproved   int64     `json:"events_approved" dynamodbav:"eventsApproved"`
	EventsAttended   int64     `json:"events_attended" dynamodbav:"eventsAttended"`
	TotalRequests    int64     `json:"total_requests" dynamodbav:"totalRequests"`
	CreatedAt        time.Time `json:"created_at" dynamodbav:"createdAt"`
	UpdatedAt        time.Time `json:"updated_at" dynamodbav:"updatedAt"`
}

// ProfileUpdate carries the client-editable profile metadata. Reputation
// fields are deliberately absent, they are derived state only.
type ProfileUpdate struct {
	FullName    string `json:"full_name,omitempty" dynamodbav:"fullName,omitempty"`
	Bio         string `json:"bio,omitempty" dynamodbav:"bio,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty" validate:"omitempty,url" dynamodbav:"avatarUrl,omitempty"`
	LinkedinURL string `json:"linkedin_url,omitempty" validate:"omitempty,url" dynamodbav:"linkedinUrl,omitempty"`
	TwitterURL  string `json:"twitter_url,omitempty" validate:"omitempty,url" dynamodbav:"twitterUrl,omitempty"`
	GithubURL   string `json:"github_url,omitempty" validate:"omitempty,url" dynamodbav:"githubUrl,omitempty"`
}

type ProfileServiceInterface interface {
	EnsureProfile(ctx context.Context, dynamodbClient DynamoDBAPI, address string) (*Profile, error)
	GetProfileByAddress(ctx context.Context, dynamodbClient DynamoDBAPI, address string) (*Profile, error)
	UpdateProfile(ctx context.Context, dynamodbClient DynamoDBAPI, address string, profile ProfileUpdate) (*Profile, error)
	RefreshReputation(ctx context.Context, dynamodbClient DynamoDBAPI, address string) (*Profile, error)
}
