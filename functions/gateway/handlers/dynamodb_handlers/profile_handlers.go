package dynamodb_handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/soulpass/api/functions/gateway/helpers"
	dynamodb_service "github.com/soulpass/api/functions/gateway/services/dynamodb_service"
	"github.com/soulpass/api/functions/gateway/transport"
	internal_types "github.com/soulpass/api/functions/gateway/types"
)

type ProfileHandler struct {
	ProfileService internal_types.ProfileServiceInterface
}

func NewProfileHandler(profileService internal_types.ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{ProfileService: profileService}
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	address := vars[helpers.ADDRESS_KEY]
	if address == "" {
		transport.SendServerRes(w, []byte("Missing address"), http.StatusBadRequest, nil)
		return
	}

	db := transport.GetDB()
	profile, err := h.ProfileService.GetProfileByAddress(r.Context(), db, address)
	if err != nil {
		transport.SendDomainErr(w, err)
		return
	}

	response, err := json.Marshal(profile)
	if err != nil {
		transport.SendServerRes(w, []byte("Error marshaling JSON"), http.StatusInternalServerError, err)
		return
	}

	transport.SendServerRes(w, response, http.StatusOK, nil)
}

// UpdateProfile edits the session holder's own profile metadata. The address
// comes from the session, there is no path parameter to edit someone else.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	address := walletAddress(r)
	if address == "" {
		transport.SendServerRes(w, []byte("Missing wallet session"), http.StatusUnauthorized, nil)
		return
	}

	var updateProfile internal_types.ProfileUpdate
	body, err := io.ReadAll(r.Body)
	if err != nil {
		transport.SendServerRes(w, []byte("Failed to read request body: "+err.Error()), http.StatusBadRequest, err)
		return
	}

	err = json.Unmarshal(body, &updateProfile)
	if err != nil {
		transport.SendServerRes(w, []byte("Invalid JSON payload: "+err.Error()), http.StatusUnprocessableEntity, err)
		return
	}

	db := transport.GetDB()
	profile, err := h.ProfileService.UpdateProfile(r.Context(), db, address, updateProfile)
	if err != nil {
		transport.SendDomainErr(w, err)
		return
	}

	response, err := json.Marshal(profile)
	if err != nil {
		transport.SendServerRes(w, []byte("Error marshaling JSON"), http.StatusInternalServerError, err)
		return
	}

	transport.SendServerRes(w, response, http.StatusOK, nil)
}

func GetProfileHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	profileService := dynamodb_service.NewProfileService()
	handler := NewProfileHandler(profileService)
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetProfile(w, r)
	}
}

func UpdateProfileHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	profileService := dynamodb_service.NewProfileService()
	handler := NewProfileHandler(profileService)
	return func(w http.ResponseWriter, r *http.Request) {
		handler.UpdateProfile(w, r)
	}
}
