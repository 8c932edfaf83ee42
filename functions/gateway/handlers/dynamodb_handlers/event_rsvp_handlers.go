package dynamodb_handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/soulpass/api/functions/gateway/helpers"
	"github.com/soulpass/api/functions/gateway/services"
	dynamodb_service "github.com/soulpass/api/functions/gateway/services/dynamodb_service"
	"github.com/soulpass/api/functions/gateway/transport"
	internal_types "github.com/soulpass/api/functions/gateway/types"
)

type EventRsvpHandler struct {
	EventRsvpService internal_types.EventRsvpServiceInterface
}

func NewEventRsvpHandler(eventRsvpService internal_types.EventRsvpServiceInterface) *EventRsvpHandler {
	return &EventRsvpHandler{EventRsvpService: eventRsvpService}
}

func (h *EventRsvpHandler) RequestJoin(w http.ResponseWriter, r *http.Request) {
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
	rsvp, err := h.EventRsvpService.RequestJoin(r.Context(), db, eventId, address)
	if err != nil {
		transport.SendDomainErr(w, err)
		return
	}

	services.EmitDomainEvent(r.Context(), services.DomainEvent{
		Type:          services.DomainEventRsvpRequested,
		EventID:       eventId,
		RsvpID:        rsvp.ID,
		ParticipantID: address,
		ActorID:       address,
		OccurredAt:    time.Now().UTC(),
	})

	response, err := json.Marshal(rsvp)
	if err != nil {
		transport.SendServerRes(w, []byte("Error marshaling JSON"), http.StatusInternalServerError, err)
		return
	}

	transport.SendServerRes(w, response, http.StatusCreated, nil)
}

func (h *EventRsvpHandler) GetEventRsvpByPk(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventId := vars[helpers.EVENT_ID_KEY]
	if eventId == "" {
		transport.SendServerRes(w, []byte("Missing event ID"), http.StatusBadRequest, nil)
		return
	}
	userId := vars[helpers.USER_ID_KEY]
	if userId == "" {
		transport.SendServerRes(w, []byte("Missing user ID"), http.StatusBadRequest, nil)
		return
	}

	db := transport.GetDB()
	rsvp, err := h.EventRsvpService.GetEventRsvpByPk(r.Context(), db, eventId, userId)
	if err != nil {
		transport.SendDomainErr(w, err)
		return
	}

	response, err := json.Marshal(rsvp)
	if err != nil {
		transport.SendServerRes(w, []byte("Error marshaling JSON"), http.StatusInternalServerError, err)
		return
	}

	transport.SendServerRes(w, response, http.StatusOK, nil)
}

func (h *EventRsvpHandler) GetEventRsvpsByUserID(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	address := vars[helpers.ADDRESS_KEY]
	if address == "" {
		transport.SendServerRes(w, []byte("Missing address"), http.StatusBadRequest, nil)
		return
	}

	db := transport.GetDB()
	rsvps, err := h.EventRsvpService.GetEventRsvpsByUserID(r.Context(), db, address)
	if err != nil {
		transport.SendDomainErr(w, err)
		return
	}

	response, err := json.Marshal(rsvps)
	if err != nil {
		transport.SendServerRes(w, []byte("Error marshaling JSON"), http.StatusInternalServerError, err)
		return
	}

	transport.SendServerRes(w, response, http.StatusOK, nil)
}

func (h *EventRsvpHandler) ApproveEventRsvp(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventId := vars[helpers.EVENT_ID_KEY]
	if eventId == "" {
		transport.SendServerRes(w, []byte("Missing event ID"), http.StatusBadRequest, nil)
		return
	}
	rsvpId := vars[helpers.RSVP_ID_KEY]
	if rsvpId == "" {
		transport.SendServerRes(w, []byte("Missing rsvp ID"), http.StatusBadRequest, nil)
		return
	}

	address := walletAddress(r)
	if address == "" {
		transport.SendServerRes(w, []byte("Missing wallet session"), http.StatusUnauthorized, nil)
		return
	}

	db := transport.GetDB()
	rsvp, err := h.EventRsvpService.ApproveEventRsvp(r.Context(), db, eventId, rsvpId, address)
	if err != nil {
		transport.SendDomainErr(w, err)
		return
	}

	services.EmitDomainEvent(r.Context(), services.DomainEvent{
		Type:          services.DomainEventRsvpApproved,
		EventID:       eventId,
		RsvpID:        rsvp.ID,
		ParticipantID: rsvp.UserID,
		ActorID:       address,
		OccurredAt:    time.Now().UTC(),
	})

	response, err := json.Marshal(rsvp)
	if err != nil {
		transport.SendServerRes(w, []byte("Error marshaling JSON"), http.StatusInternalServerError, err)
		return
	}

	transport.SendServerRes(w, response, http.StatusOK, nil)
}

func (h *EventRsvpHandler) CheckinEventRsvp(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventId := vars[helpers.EVENT_ID_KEY]
	if eventId == "" {
		transport.SendServerRes(w, []byte("Missing event ID"), http.StatusBadRequest, nil)
		return
	}
	rsvpId := vars[helpers.RSVP_ID_KEY]
	if rsvpId == "" {
		transport.SendServerRes(w, []byte("Missing rsvp ID"), http.StatusBadRequest, nil)
		return
	}

	address := walletAddress(r)
	if address == "" {
		transport.SendServerRes(w, []byte("Missing wallet session"), http.StatusUnauthorized, nil)
		return
	}

	db := transport.GetDB()
	rsvp, err := h.EventRsvpService.MarkEventRsvpAttended(r.Context(), db, eventId, rsvpId, address)
	if err != nil {
		transport.SendDomainErr(w, err)
		return
	}

	services.EmitDomainEvent(r.Context(), services.DomainEvent{
		Type:          services.DomainEventAttendanceMarked,
		EventID:       eventId,
		RsvpID:        rsvp.ID,
		ParticipantID: rsvp.UserID,
		ActorID:       address,
		OccurredAt:    time.Now().UTC(),
	})

	response, err := json.Marshal(rsvp)
	if err != nil {
		transport.SendServerRes(w, []byte("Error marshaling JSON"), http.StatusInternalServerError, err)
		return
	}

	transport.SendServerRes(w, response, http.StatusOK, nil)
}

func (h *EventRsvpHandler) ListPendingEventRsvps(w http.ResponseWriter, r *http.Request) {
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
	pending, err := h.EventRsvpService.ListPendingEventRsvps(r.Context(), db, eventId, address)
	if err != nil {
		transport.SendDomainErr(w, err)
		return
	}

	response, err := json.Marshal(pending)
	if err != nil {
		transport.SendServerRes(w, []byte("Error marshaling JSON"), http.StatusInternalServerError, err)
		return
	}

	transport.SendServerRes(w, response, http.StatusOK, nil)
}

func (h *EventRsvpHandler) ListApprovedEventRsvps(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventId := vars[helpers.EVENT_ID_KEY]
	if eventId == "" {
		transport.SendServerRes(w, []byte("Missing event ID"), http.StatusBadRequest, nil)
		return
	}

	db := transport.GetDB()
	approved, err := h.EventRsvpService.ListApprovedEventRsvps(r.Context(), db, eventId)
	if err != nil {
		transport.SendDomainErr(w, err)
		return
	}

	response, err := json.Marshal(approved)
	if err != nil {
		transport.SendServerRes(w, []byte("Error marshaling JSON"), http.StatusInternalServerError, err)
		return
	}

	transport.SendServerRes(w, response, http.StatusOK, nil)
}

func RequestJoinHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	eventRsvpService := dynamodb_service.NewEventRsvpService()
	handler := NewEventRsvpHandler(eventRsvpService)
	return func(w http.ResponseWriter, r *http.Request) {
		handler.RequestJoin(w, r)
	}
}

func GetEventRsvpByPkHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	eventRsvpService := dynamodb_service.NewEventRsvpService()
	handler := NewEventRsvpHandler(eventRsvpService)
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetEventRsvpByPk(w, r)
	}
}

func GetEventRsvpsByUserIDHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	eventRsvpService := dynamodb_service.NewEventRsvpService()
	handler := NewEventRsvpHandler(eventRsvpService)
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetEventRsvpsByUserID(w, r)
	}
}

func ApproveEventRsvpHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	eventRsvpService := dynamodb_service.NewEventRsvpService()
	handler := NewEventRsvpHandler(eventRsvpService)
	return func(w http.ResponseWriter, r *http.Request) {
		handler.ApproveEventRsvp(w, r)
	}
}

func CheckinEventRsvpHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	eventRsvpService := dynamodb_service.NewEventRsvpService()
	handler := NewEventRsvpHandler(eventRsvpService)
	return func(w http.ResponseWriter, r *http.Request) {
		handler.CheckinEventRsvp(w, r)
	}
}

func ListPendingEventRsvpsHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	eventRsvpService := dynamodb_service.NewEventRsvpService()
	handler := NewEventRsvpHandler(eventRsvpService)
	return func(w http.ResponseWriter, r *http.Request) {
		handler.ListPendingEventRsvps(w, r)
	}
}

func ListApprovedEventRsvpsHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	eventRsvpService := dynamodb_service.NewEventRsvpService()
	handler := NewEventRsvpHandler(eventRsvpService)
	return func(w http.ResponseWriter, r *http.Request) {
		handler.ListApprovedEventRsvps(w, r)
	}
}
