package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

var (
	streamName  = getEnvDefault("NATS_RSVP_STREAM_NAME", "SOULPASS_RSVP")
	subjectName = getEnvDefault("NATS_RSVP_STREAM_SUBJECT", "soulpass.rsvp.events")
)

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

const (
	DomainEventRsvpRequested    = "RsvpRequested"
	DomainEventRsvpApproved     = "RsvpApproved"
	DomainEventAttendanceMarked = "AttendanceMarked"
)

// DomainEvent is the notification payload published after a successful RSVP
// transition. Consumers (mailers, push notifiers) subscribe out-of-band;
// publish failures never roll back the mutation that produced the event.
type DomainEvent struct {
	Type          string    `json:"type"`
	EventID       string    `json:"event_id"`
	RsvpID        string    `json:"rsvp_id,omitempty"`
	ParticipantID string    `json:"participant_id"`
	ActorID       string    `json:"actor_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type NatsService struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

func NewNatsService(ctx context.Context, conn *nats.Conn) (*NatsService, error) {
	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	// Create stream if it does not exist
	_, err = js.Stream(ctx, streamName)
	if err != nil {
		log.Printf("Stream %s does not exist, creating it...", streamName)

		_, err = js.CreateStream(ctx, jetstream.StreamConfig{
			Name:     streamName,
			Subjects: []string{subjectName},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create stream: %w", err)
		}
	}

	return &NatsService{
		conn: conn,
		js:   js,
	}, nil
}

func GetNatsClient() (*nats.Conn, error) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		return nil, fmt.Errorf("NATS_URL environment variable is required")
	}
	return nats.Connect(url)
}

func (s *NatsService) PublishDomainEvent(ctx context.Context, event DomainEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal domain event: %w", err)
	}

	ack, err := s.js.Publish(ctx, subjectName, data)
	if err != nil {
		return fmt.Errorf("failed to publish domain event: %w", err)
	}

	log.Printf("Published %s with sequence number %d on stream %q", event.Type, ack.Sequence, ack.Stream)
	return nil
}

func (s *NatsService) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}

var (
	natsOnce sync.Once
	natsSvc  *NatsService
)

// EmitDomainEvent is the fire-and-forget path used by handlers after a
// successful mutation. When NATS is unconfigured or publishing fails the
// event is logged and dropped, the caller's write is already durable.
func EmitDomainEvent(ctx context.Context, event DomainEvent) {
	natsOnce.Do(func() {
		conn, err := GetNatsClient()
		if err != nil {
			log.Printf("Domain events disabled: %v", err)
			return
		}
		svc, err := NewNatsService(ctx, conn)
		if err != nil {
			log.Printf("ERR: failed to initialize NATS service: %v", err)
			return
		}
		natsSvc = svc
	})

	if natsSvc == nil {
		return
	}
	if err := natsSvc.PublishDomainEvent(ctx, event); err != nil {
		log.Printf("ERR: dropping domain event %s for event %s: %v", event.Type, event.EventID, err)
	}
}
