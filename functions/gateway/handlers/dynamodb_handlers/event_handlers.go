package dynamodb_handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/soulpass/api/functions/gateway/helpers"
	dynamodb_service "github.com/soulpass/api/functions/gateway/services/dynamodb_service"
	"github.com/soulpass/api/functions/gateway/transport"
	internal_types "github.com/soulpass/api/functions/gateway/types"
)

type EventHandler struct {
	EventService     internal_types.EventServiceInterface
	EventRsvpService internal_types.EventRsvpServiceInterface
}

func NewEventHandler(eventService internal_types.EventServiceInterface, eventRsvpService internal_types.EventRsvpServiceInterface) *EventHandler {
	return &EventHandler{EventService: eventService, EventRsvpService: eventRsvpService}
}

// walletAddress returns the authenticated wallet address the session
// middleware stored on the request context, empty on unauthenticated routes.
func walletAddress(r *http.Request) string {
	address, _ := r.Context().Value(helpers.WalletAddressKey).(string)
	return address
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	address := walletAddress(r)
	if address == "" {
		transport.SendServerRes(w, []byte("Missing wallet session"), http.StatusUnauthorized, nil)
		return
	}

	var createEvent internal_types.EventInsert
	body, err := io.ReadAll(r.Body)
	if err != nil {
		transport.SendServerRes(w, []byte("Failed to read request body: "+err.Error()), http.StatusBadRequest, err)
		return
	}

	err = json.Unmarshal(body, &createEvent)
	if err != nil {
		transport.SendServerRes(w, []byte("Invalid JSON payload: "+err.Error()), http.StatusUnprocessableEntity, err)
		return
	}

	// the organizer is always the session holder, never the payload
	createEvent.OrganizerID = address

	db := transport.GetDB()
	res, err := h.EventService.InsertEvent(r.Context(), db, createEvent)
	if err != nil {
		transport.SendDomainErr(w, err)
		return
	}

	response, err := json.Marshal(res)
	if err != nil {
		transport.SendServerRes(w, []byte("Error marshaling JSON"), http.StatusInternalServerError, err)
		return
	}

	transport.SendServerRes(w, response, http.StatusCreated, nil)
}

// eventDetailResponse is an event plus the viewing participant's own RSVP,
// attached only when the request carried a wallet session.
type eventDetailResponse struct {
	internal_types.Event
	ViewerRsvp *internal_types.EventRsvp `json:"viewer_rsvp,omitempty"`
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventId := vars[helpers.EVENT_ID_KEY]
	if eventId == "" {
		transport.SendServerRes(w, []byte("Missing event ID"), http.StatusBadRequest, nil)
		return
	}

	db := transport.GetDB()
	event, err := h.EventService.GetEventByID(r.Context(), db, eventId)
	if err != nil {
		transport.SendDomainErr(w, err)
		return
	}

	detail := eventDetailResponse{Event: *event}
	if address := walletAddress(r); address != "" {
		rsvp, err := h.EventRsvpService.GetEventRsvpByPk(r.Context(), db, eventId, address)
		switch {
		case err == nil:
			detail.ViewerRsvp = rsvp
		case internal_types.IsKind(err, internal_types.KindNotFound):
			// viewer hasn't requested to join, nothing to attach
		default:
			log.Printf("ERR: failed to fetch viewer RSVP for event %s: %v", eventId, err)
		}
	}

	response, err := json.Marshal(detail)
	if err != nil {
		transport.SendServerRes(w, []byte("Error marshaling JSON"), http.StatusInternalServerError, err)
		return
	}

	transport.SendServerRes(w, response, http.StatusOK, nil)
}

func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventId := vars[helpers.EVENT_ID_KEY]
	if eventId == "" {
		transport.SendServerRes(w, []byte("Missing event ID"), http.StatusBadRequest, nil)
		return
	}

	address := walletAddress(r)
	if address == "" {
		transport.SendServerRes(w, []byte("Missing wallet session"), http.StatusUnauthorized, nil)
		return
	}

	var updateEvent internal_types.EventUpdate
	body, err := io.ReadAll(r.Body)
	if err != nil {
		transport.SendServerRes(w, []byte("Failed to read request body: "+err.Error()), http.StatusBadRequest, err)
		return
	}

	err = json.Unmarshal(body, &updateEvent)
	if err != nil {
		transport.SendServerRes(w, []byte("Invalid JSON payload: "+err.Error()), http.StatusUnprocessableEntity, err)
		return
	}

	db := transport.GetDB()
	event, err := h.EventService.UpdateEvent(r.Context(), db, eventId, address, updateEvent)
	if err != nil {
		transport.SendDomainErr(w, err)
		return
	}

	response, err := json.Marshal(event)
	if err != nil {
		transport.SendServerRes(w, []byte("Error marshaling JSON"), http.StatusInternalServerError, err)
		return
	}

	transport.SendServerRes(w, response, http.StatusOK, nil)
}

func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := internal_types.EventListFilter{
		Query:    query.Get("q"),
		Location: query.Get("location"),
		SortBy:   query.Get("sort_by"),
		Cursor:   query.Get("cursor"),
		Limit:    helpers.ParsePageLimit(query.Get("limit")),
	}

	db := transport.GetDB()
	page, err := h.EventService.ListPublicEvents(r.Context(), db, filter)
	if err != nil {
		transport.SendDomainErr(w, err)
		return
	}

	response, err := json.Marshal(page)
	if err != nil {
		transport.SendServerRes(w, []byte("Error marshaling JSON"), http.StatusInternalServerError, err)
		return
	}

	transport.SendServerRes(w, response, http.StatusOK, nil)
}

func (h *EventHandler) GetEventsByOrganizer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	address := vars[helpers.ADDRESS_KEY]
	if address == "" {
		transport.SendServerRes(w, []byte("Missing address"), http.StatusBadRequest, nil)
		return
	}

	db := transport.GetDB()
	events, err := h.EventService.GetEventsByOrganizerID(r.Context(), db, address)
	if err != nil {
		transport.SendDomainErr(w, err)
		return
	}

	response, err := json.Marshal(events)
	if err != nil {
		transport.SendServerRes(w, []byte("Error marshaling JSON"), http.StatusInternalServerError, err)
		return
	}

	transport.SendServerRes(w, response, http.StatusOK, nil)
}

// GetCheckinCode returns the payload clients render as the attendance QR code.
func (h *EventHandler) GetCheckinCode(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventId := vars[helpers.EVENT_ID_KEY]
	if eventId == "" {
		transport.SendServerRes(w, []byte("Missing event ID"), http.StatusBadRequest, nil)
		return
	}

	address := walletAddress(r)
	if address == "" {
		transport.SendServerRes(w, []byte("Missing wallet session"), http.StatusUnauthorized, nil)
		return
	}

	db := transport.GetDB()
	event, err := h.EventService.GetEventByID(r.Context(), db, eventId)
	if err != nil {
		transport.SendDomainErr(w, err)
		return
	}
	if event.OrganizerID != address {
		transport.SendDomainErr(w, internal_types.NewDomainError(internal_types.KindForbidden, "only the organizer may fetch the check-in code"))
		return
	}

	response, err := json.Marshal(map[string]string{"payload": helpers.CheckinPayload(eventId)})
	if err != nil {
		transport.SendServerRes(w, []byte("Error marshaling JSON"), http.StatusInternalServerError, err)
		return
	}

	transport.SendServerRes(w, response, http.StatusOK, nil)
}

func CreateEventHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	eventService := dynamodb_service.NewEventService()
	eventRsvpService := dynamodb_service.NewEventRsvpService()
	handler := NewEventHandler(eventService, eventRsvpService)
	return func(w http.ResponseWriter, r *http.Request) {
		handler.CreateEvent(w, r)
	}
}

func GetEventHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	eventService := dynamodb_service.NewEventService()
	eventRsvpService := dynamodb_service.NewEventRsvpService()
	handler := NewEventHandler(eventService, eventRsvpService)
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetEvent(w, r)
	}
}

func UpdateEventHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	eventService := dynamodb_service.NewEventService()
	eventRsvpService := dynamodb_service.NewEventRsvpService()
	handler := NewEventHandler(eventService, eventRsvpService)
	return func(w http.ResponseWriter, r *http.Request) {
		handler.UpdateEvent(w, r)
	}
}

func ListEventsHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	eventService := dynamodb_service.NewEventService()
	eventRsvpService := dynamodb_service.NewEventRsvpService()
	handler := NewEventHandler(eventService, eventRsvpService)
	return func(w http.ResponseWriter, r *http.Request) {
		handler.ListEvents(w, r)
	}
}

func GetEventsByOrganizerHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	eventService := dynamodb_service.NewEventService()
	eventRsvpService := dynamodb_service.NewEventRsvpService()
	handler := NewEventHandler(eventService, eventRsvpService)
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetEventsByOrganizer(w, r)
	}
}

func GetCheckinCodeHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	eventService := dynamodb_service.NewEventService()
	eventRsvpService := dynamodb_service.NewEventRsvpService()
	handler := NewEventHandler(eventService, eventRsvpService)
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetCheckinCode(w, r)
	}
}
