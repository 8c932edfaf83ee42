package dynamodb_handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	dynamodb_service "github.com/soulpass/api/functions/gateway/services/dynamodb_service"
	internal_types "github.com/soulpass/api/functions/gateway/types"
)

func TestCreateEventHandlerForcesOrganizer(t *testing.T) {
	var seenOrganizer string
	mockService := &dynamodb_service.MockEventService{
		InsertEventFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, event internal_types.EventInsert) (*internal_types.Event, error) {
			seenOrganizer = event.OrganizerID
			return &internal_types.Event{Id: "event123", OrganizerID: event.OrganizerID, Title: event.Title}, nil
		},
	}

	handler := NewEventHandler(mockService, &dynamodb_service.MockEventRsvpService{})

	// the payload tries to spoof a different organizer
	body := `{
		"organizer_id": "0x0000000000000000000000000000000000000bad",
		"title": "Rooftop Party",
		"description": "social",
		"start_time": "2026-09-01T19:00:00Z",
		"visibility": "public"
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/event", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withWallet(req, testOrganizer)

	w := httptest.NewRecorder()
	handler.CreateEvent(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusCreated {
		t.Errorf("Expected status code 201, got %d", res.StatusCode)
	}
	if seenOrganizer != testOrganizer {
		t.Errorf("expected organizer from session %q, got %q", testOrganizer, seenOrganizer)
	}
}

func TestCreateEventHandlerInvalidJSON(t *testing.T) {
	handler := NewEventHandler(&dynamodb_service.MockEventService{}, &dynamodb_service.MockEventRsvpService{})

	req := httptest.NewRequest(http.MethodPost, "/api/event", strings.NewReader("{not json"))
	req = withWallet(req, testOrganizer)

	w := httptest.NewRecorder()
	handler.CreateEvent(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Expected status code 422, got %d", res.StatusCode)
	}
}

func TestGetEventHandlerNotFound(t *testing.T) {
	mockService := &dynamodb_service.MockEventService{
		GetEventByIDFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.Event, error) {
			return nil, internal_types.NewDomainError(internal_types.KindNotFound, "event not found")
		},
	}

	handler := NewEventHandler(mockService, &dynamodb_service.MockEventRsvpService{})

	req := httptest.NewRequest(http.MethodGet, "/api/event/missing", nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "missing"})

	w := httptest.NewRecorder()
	handler.GetEvent(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status code 404, got %d", res.StatusCode)
	}
}

func TestGetEventHandlerInlinesViewerRsvp(t *testing.T) {
	mockService := &dynamodb_service.MockEventService{
		GetEventByIDFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.Event, error) {
			return &internal_types.Event{Id: id, OrganizerID: testOrganizer, Title: "Workshop"}, nil
		},
	}
	mockRsvpService := &dynamodb_service.MockEventRsvpService{
		GetEventRsvpByPkFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, userId string) (*internal_types.EventRsvp, error) {
			if userId != testParticipant {
				t.Errorf("expected viewer lookup for %q, got %q", testParticipant, userId)
			}
			return &internal_types.EventRsvp{ID: "rsvp-1", EventID: eventId, UserID: userId, Status: internal_types.RsvpStatusApproved}, nil
		},
	}

	handler := NewEventHandler(mockService, mockRsvpService)

	req := httptest.NewRequest(http.MethodGet, "/api/event/event123", nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "event123"})
	req = withWallet(req, testParticipant)

	w := httptest.NewRecorder()
	handler.GetEvent(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", res.StatusCode)
	}

	var detail struct {
		internal_types.Event
		ViewerRsvp *internal_types.EventRsvp `json:"viewer_rsvp"`
	}
	if err := json.NewDecoder(res.Body).Decode(&detail); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if detail.ViewerRsvp == nil {
		t.Fatal("expected viewer_rsvp in response")
	}
	if detail.ViewerRsvp.Status != internal_types.RsvpStatusApproved {
		t.Errorf("expected approved viewer RSVP, got %q", detail.ViewerRsvp.Status)
	}
}

func TestGetEventHandlerAnonymousSkipsViewerRsvp(t *testing.T) {
	mockService := &dynamodb_service.MockEventService{
		GetEventByIDFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.Event, error) {
			return &internal_types.Event{Id: id, OrganizerID: testOrganizer, Title: "Workshop"}, nil
		},
	}
	rsvpLookups := 0
	mockRsvpService := &dynamodb_service.MockEventRsvpService{
		GetEventRsvpByPkFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, userId string) (*internal_types.EventRsvp, error) {
			rsvpLookups++
			return nil, internal_types.NewDomainError(internal_types.KindNotFound, "RSVP not found")
		},
	}

	handler := NewEventHandler(mockService, mockRsvpService)

	req := httptest.NewRequest(http.MethodGet, "/api/event/event123", nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "event123"})

	w := httptest.NewRecorder()
	handler.GetEvent(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", res.StatusCode)
	}
	if rsvpLookups != 0 {
		t.Errorf("expected no RSVP lookup for anonymous request, got %d", rsvpLookups)
	}

	var detail map[string]json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&detail); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if _, ok := detail["viewer_rsvp"]; ok {
		t.Error("expected viewer_rsvp to be omitted for anonymous request")
	}
}

func TestUpdateEventHandlerForbidden(t *testing.T) {
	mockService := &dynamodb_service.MockEventService{
		UpdateEventFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id, actingId string, event internal_types.EventUpdate) (*internal_types.Event, error) {
			return nil, internal_types.NewDomainError(internal_types.KindForbidden, "only the organizer may update the event")
		},
	}

	handler := NewEventHandler(mockService, &dynamodb_service.MockEventRsvpService{})

	req := httptest.NewRequest(http.MethodPut, "/api/event/event123", strings.NewReader(`{"title":"New"}`))
	req = mux.SetURLVars(req, map[string]string{"event_id": "event123"})
	req = withWallet(req, testParticipant)

	w := httptest.NewRecorder()
	handler.UpdateEvent(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusForbidden {
		t.Errorf("Expected status code 403, got %d", res.StatusCode)
	}
}

func TestListEventsHandlerPassesFilter(t *testing.T) {
	var seenFilter internal_types.EventListFilter
	mockService := &dynamodb_service.MockEventService{
		ListPublicEventsFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, filter internal_types.EventListFilter) (*internal_types.EventListPage, error) {
			seenFilter = filter
			return &internal_types.EventListPage{
				Events: []internal_types.Event{{Id: "event123", Title: "Workshop", StartTime: time.Now().UTC()}},
			}, nil
		},
	}

	handler := NewEventHandler(mockService, &dynamodb_service.MockEventRsvpService{})

	req := httptest.NewRequest(http.MethodGet, "/api/events?q=workshop&location=berlin&sort_by=title&limit=10", nil)

	w := httptest.NewRecorder()
	handler.ListEvents(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", res.StatusCode)
	}
	if seenFilter.Query != "workshop" || seenFilter.Location != "berlin" || seenFilter.SortBy != "title" || seenFilter.Limit != 10 {
		t.Errorf("unexpected filter: %+v", seenFilter)
	}

	var page internal_types.EventListPage
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(page.Events) != 1 {
		t.Errorf("expected 1 event, got %d", len(page.Events))
	}
}

func TestGetCheckinCodeHandler(t *testing.T) {
	mockService := &dynamodb_service.MockEventService{
		GetEventByIDFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.Event, error) {
			return &internal_types.Event{Id: id, OrganizerID: testOrganizer}, nil
		},
	}

	handler := NewEventHandler(mockService, &dynamodb_service.MockEventRsvpService{})

	req := httptest.NewRequest(http.MethodGet, "/api/event/event123/checkin-code", nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "event123"})
	req = withWallet(req, testOrganizer)

	w := httptest.NewRecorder()
	handler.GetCheckinCode(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", res.StatusCode)
	}

	var payload map[string]string
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["payload"] != "soulpass://event/event123/attendance" {
		t.Errorf("unexpected checkin payload: %q", payload["payload"])
	}
}

func TestGetCheckinCodeHandlerForbidden(t *testing.T) {
	mockService := &dynamodb_service.MockEventService{
		GetEventByIDFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.Event, error) {
			return &internal_types.Event{Id: id, OrganizerID: testOrganizer}, nil
		},
	}

	handler := NewEventHandler(mockService, &dynamodb_service.MockEventRsvpService{})

	req := httptest.NewRequest(http.MethodGet, "/api/event/event123/checkin-code", nil)
	req = mux.SetURLVars(req, map[string]string{"event_id": "event123"})
	req = withWallet(req, testParticipant)

	w := httptest.NewRecorder()
	handler.GetCheckinCode(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusForbidden {
		t.Errorf("Expected status code 403, got %d", res.StatusCode)
	}
}

func TestGetEventsByOrganizerHandler(t *testing.T) {
	mockService := &dynamodb_service.MockEventService{
		GetEventsByOrganizerIDFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, organizerId string) ([]internal_types.Event, error) {
			return []internal_types.Event{{Id: "event123", OrganizerID: organizerId}}, nil
		},
	}

	handler := NewEventHandler(mockService, &dynamodb_service.MockEventRsvpService{})

	req := httptest.NewRequest(http.MethodGet, "/api/profile/"+testOrganizer+"/events", nil)
	req = mux.SetURLVars(req, map[string]string{"address": testOrganizer})

	w := httptest.NewRecorder()
	handler.GetEventsByOrganizer(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", res.StatusCode)
	}
}
