package dynamodb_handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/soulpass/api/functions/gateway/helpers"
	dynamodb_service "github.com/soulpass/api/functions/gateway/services/dynamodb_service"
	internal_types "github.com/soulpass/api/functions/gateway/types"
)

const (
	testOrganizer   = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"
	testParticipant = "0x1234000000000000000000000000000000005678"
)

func withWallet(req *http.Request, address string) *http.Request {
	ctx := context.WithValue(req.Context(), helpers.WalletAddressKey, address)
	return req.WithContext(ctx)
}

func TestRequestJoinHandler(t *testing.T) {
	mockService := &dynamodb_service.MockEventRsvpService{
		RequestJoinFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, participantId string) (*internal_types.EventRsvp, error) {
			return &internal_types.EventRsvp{
				ID:          "rsvp123",
				EventID:     eventId,
				UserID:      participantId,
				Status:      internal_types.RsvpStatusRequested,
				RequestedAt: time.Now().UTC(),
			}, nil
		},
	}

	handler := NewEventRsvpHandler(mockService)

	req := httptest.NewRequest(http.MethodPost, "/api/event/event123/rsvp", nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "event123"})
	req = withWallet(req, testParticipant)

	w := httptest.NewRecorder()
	handler.RequestJoin(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusCreated {
		t.Errorf("Expected status code 201, got %d", res.StatusCode)
	}

	var rsvp internal_types.EventRsvp
	if err := json.NewDecoder(res.Body).Decode(&rsvp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if rsvp.Status != internal_types.RsvpStatusRequested {
		t.Errorf("expected status %q, got %q", internal_types.RsvpStatusRequested, rsvp.Status)
	}
}

func TestRequestJoinHandlerRequiresSession(t *testing.T) {
	handler := NewEventRsvpHandler(&dynamodb_service.MockEventRsvpService{})

	req := httptest.NewRequest(http.MethodPost, "/api/event/event123/rsvp", nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "event123"})

	w := httptest.NewRecorder()
	handler.RequestJoin(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status code 401, got %d", res.StatusCode)
	}
}

func TestRequestJoinHandlerConflict(t *testing.T) {
	mockService := &dynamodb_service.MockEventRsvpService{
		RequestJoinFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, participantId string) (*internal_types.EventRsvp, error) {
			return nil, internal_types.NewDomainError(internal_types.KindConflict, "an RSVP already exists for this participant")
		},
	}

	handler := NewEventRsvpHandler(mockService)

	req := httptest.NewRequest(http.MethodPost, "/api/event/event123/rsvp", nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "event123"})
	req = withWallet(req, testParticipant)

	w := httptest.NewRecorder()
	handler.RequestJoin(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusConflict {
		t.Errorf("Expected status code 409, got %d", res.StatusCode)
	}

	var payload map[string]string
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode error payload: %v", err)
	}
	if payload["kind"] != string(internal_types.KindConflict) {
		t.Errorf("expected kind conflict, got %q", payload["kind"])
	}
}

func TestGetEventRsvpByPkHandler(t *testing.T) {
	mockService := &dynamodb_service.MockEventRsvpService{
		GetEventRsvpByPkFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, userId string) (*internal_types.EventRsvp, error) {
			return &internal_types.EventRsvp{ID: "rsvp123", EventID: eventId, UserID: userId}, nil
		},
	}

	handler := NewEventRsvpHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/event/event123/rsvp/"+testParticipant, nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "event123", "user_id": testParticipant})

	w := httptest.NewRecorder()
	handler.GetEventRsvpByPk(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", res.StatusCode)
	}
}

func TestApproveEventRsvpHandlerCapacity(t *testing.T) {
	mockService := &dynamodb_service.MockEventRsvpService{
		ApproveEventRsvpFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, rsvpId, actingId string) (*internal_types.EventRsvp, error) {
			return nil, internal_types.NewDomainError(internal_types.KindCapacityExceeded, "event is at capacity")
		},
	}

	handler := NewEventRsvpHandler(mockService)

	req := httptest.NewRequest(http.MethodPut, "/api/event/event123/rsvp/rsvp123/approve", nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "event123", "rsvp_id": "rsvp123"})
	req = withWallet(req, testOrganizer)

	w := httptest.NewRecorder()
	handler.ApproveEventRsvp(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusConflict {
		t.Errorf("Expected status code 409, got %d", res.StatusCode)
	}

	var payload map[string]string
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode error payload: %v", err)
	}
	if payload["kind"] != string(internal_types.KindCapacityExceeded) {
		t.Errorf("expected kind capacity_exceeded, got %q", payload["kind"])
	}
}

func TestApproveEventRsvpHandlerSuccess(t *testing.T) {
	approvedAt := time.Now().UTC()
	mockService := &dynamodb_service.MockEventRsvpService{
		ApproveEventRsvpFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, rsvpId, actingId string) (*internal_types.EventRsvp, error) {
			return &internal_types.EventRsvp{
				ID:         rsvpId,
				EventID:    eventId,
				UserID:     testParticipant,
				Status:     internal_types.RsvpStatusApproved,
				ApprovedAt: &approvedAt,
			}, nil
		},
	}

	handler := NewEventRsvpHandler(mockService)

	req := httptest.NewRequest(http.MethodPut, "/api/event/event123/rsvp/rsvp123/approve", nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "event123", "rsvp_id": "rsvp123"})
	req = withWallet(req, testOrganizer)

	w := httptest.NewRecorder()
	handler.ApproveEventRsvp(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", res.StatusCode)
	}
}

func TestCheckinEventRsvpHandlerPrecondition(t *testing.T) {
	mockService := &dynamodb_service.MockEventRsvpService{
		MarkEventRsvpAttendedFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, rsvpId, actingId string) (*internal_types.EventRsvp, error) {
			return nil, internal_types.NewDomainError(internal_types.KindPrecondition, "attendance cannot be recorded before approval")
		},
	}

	handler := NewEventRsvpHandler(mockService)

	req := httptest.NewRequest(http.MethodPost, "/api/event/event123/rsvp/rsvp123/checkin", nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "event123", "rsvp_id": "rsvp123"})
	req = withWallet(req, testOrganizer)

	w := httptest.NewRecorder()
	handler.CheckinEventRsvp(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusConflict {
		t.Errorf("Expected status code 409, got %d", res.StatusCode)
	}

	var payload map[string]string
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode error payload: %v", err)
	}
	if payload["kind"] != string(internal_types.KindPrecondition) {
		t.Errorf("expected kind precondition, got %q", payload["kind"])
	}
}

func TestListPendingEventRsvpsHandlerForbidden(t *testing.T) {
	mockService := &dynamodb_service.MockEventRsvpService{
		ListPendingEventRsvpsFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, actingId string) ([]internal_types.PendingEventRsvp, error) {
			return nil, internal_types.NewDomainError(internal_types.KindForbidden, "only the organizer may list pending RSVPs")
		},
	}

	handler := NewEventRsvpHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/event/event123/rsvps/pending", nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "event123"})
	req = withWallet(req, testParticipant)

	w := httptest.NewRecorder()
	handler.ListPendingEventRsvps(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusForbidden {
		t.Errorf("Expected status code 403, got %d", res.StatusCode)
	}
}

func TestListApprovedEventRsvpsHandler(t *testing.T) {
	mockService := &dynamodb_service.MockEventRsvpService{
		ListApprovedEventRsvpsFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId string) ([]internal_types.EventRsvp, error) {
			return []internal_types.EventRsvp{
				{ID: "rsvp1", EventID: eventId, UserID: testParticipant},
			}, nil
		},
	}

	handler := NewEventRsvpHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/event/event123/rsvps/approved", nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "event123"})

	w := httptest.NewRecorder()
	handler.ListApprovedEventRsvps(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", res.StatusCode)
	}

	var rsvps []internal_types.EventRsvp
	if err := json.NewDecoder(res.Body).Decode(&rsvps); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(rsvps) != 1 {
		t.Errorf("expected 1 rsvp, got %d", len(rsvps))
	}
}

func TestGetEventRsvpsByUserIDHandler(t *testing.T) {
	mockService := &dynamodb_service.MockEventRsvpService{
		GetEventRsvpsByUserIDFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string) ([]internal_types.EventRsvp, error) {
			return []internal_types.EventRsvp{
				{ID: "rsvp1", EventID: "event123", UserID: userId},
				{ID: "rsvp2", EventID: "event456", UserID: userId},
			}, nil
		},
	}

	handler := NewEventRsvpHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/profile/"+testParticipant+"/rsvps", nil)
	req = mux.SetURLVars(req, map[string]string{"address": testParticipant})

	w := httptest.NewRecorder()
	handler.GetEventRsvpsByUserID(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", res.StatusCode)
	}
}
