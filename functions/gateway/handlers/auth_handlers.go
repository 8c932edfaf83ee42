package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator"
	"github.com/soulpass/api/functions/gateway/services"
	"github.com/soulpass/api/functions/gateway/transport"
)

var validate *validator.Validate = validator.New()

type sessionRequest struct {
	Address string `json:"address" validate:"required,eth_addr"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	Address   string    `json:"address"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateSession exchanges a verified wallet address for a bearer token. The
// wallet-connect edge in front of this endpoint has already verified the
// signed message, so the address is trusted input here.
func CreateSession(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		transport.SendServerRes(w, []byte("Failed to read request body: "+err.Error()), http.StatusBadRequest, err)
		return
	}

	var req sessionRequest
	err = json.Unmarshal(body, &req)
	if err != nil {
		transport.SendServerRes(w, []byte("Invalid JSON payload: "+err.Error()), http.StatusUnprocessableEntity, err)
		return
	}

	err = validate.Struct(&req)
	if err != nil {
		transport.SendServerRes(w, []byte("Invalid body: "+err.Error()), http.StatusBadRequest, err)
		return
	}

	token, expiresAt, err := services.IssueSessionToken(req.Address)
	if err != nil {
		transport.SendServerRes(w, []byte("Failed to issue session token"), http.StatusInternalServerError, err)
		return
	}

	response, err := json.Marshal(sessionResponse{
		Token:     token,
		Address:   req.Address,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		transport.SendServerRes(w, []byte("Error marshaling JSON"), http.StatusInternalServerError, err)
		return
	}

	transport.SendServerRes(w, response, http.StatusCreated, nil)
}

func CreateSessionHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		CreateSession(w, r)
	}
}
