package dynamodb_handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	dynamodb_service "github.com/soulpass/api/functions/gateway/services/dynamodb_service"
	internal_types "github.com/soulpass/api/functions/gateway/types"
)

func TestGetProfileHandler(t *testing.T) {
	mockService := &dynamodb_service.MockProfileService{
		GetProfileByAddressFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, address string) (*internal_types.Profile, error) {
			return &internal_types.Profile{
				Address:         address,
				FullName:        "Ada",
				ReputationScore: 0.85,
				ReputationLabel: "Excellent",
			}, nil
		},
	}

	handler := NewProfileHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/profile/"+testParticipant, nil)
	req = mux.SetURLVars(req, map[string]string{"address": testParticipant})

	w := httptest.NewRecorder()
	handler.GetProfile(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", res.StatusCode)
	}

	var profile internal_types.Profile
	if err := json.NewDecoder(res.Body).Decode(&profile); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if profile.ReputationLabel != "Excellent" {
		t.Errorf("expected label Excellent, got %q", profile.ReputationLabel)
	}
}

func TestGetProfileHandlerNotFound(t *testing.T) {
	mockService := &dynamodb_service.MockProfileService{
		GetProfileByAddressFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, address string) (*internal_types.Profile, error) {
			return nil, internal_types.NewDomainError(internal_types.KindNotFound, "profile not found")
		},
	}

	handler := NewProfileHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/profile/"+testParticipant, nil)
	req = mux.SetURLVars(req, map[string]string{"address": testParticipant})

	w := httptest.NewRecorder()
	handler.GetProfile(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status code 404, got %d", res.StatusCode)
	}
}

func TestUpdateProfileHandlerUsesSessionAddress(t *testing.T) {
	var seenAddress string
	mockService := &dynamodb_service.MockProfileService{
		UpdateProfileFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, address string, profile internal_types.ProfileUpdate) (*internal_types.Profile, error) {
			seenAddress = address
			return &internal_types.Profile{Address: address, FullName: profile.FullName}, nil
		},
	}

	handler := NewProfileHandler(mockService)

	req := httptest.NewRequest(http.MethodPut, "/api/profile", strings.NewReader(`{"full_name":"Ada"}`))
	req.Header.Set("Content-Type", "application/json")
	req = withWallet(req, testParticipant)

	w := httptest.NewRecorder()
	handler.UpdateProfile(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", res.StatusCode)
	}
	if seenAddress != testParticipant {
		t.Errorf("expected session address %q, got %q", testParticipant, seenAddress)
	}
}

func TestUpdateProfileHandlerRequiresSession(t *testing.T) {
	handler := NewProfileHandler(&dynamodb_service.MockProfileService{})

	req := httptest.NewRequest(http.MethodPut, "/api/profile", strings.NewReader(`{"full_name":"Ada"}`))

	w := httptest.NewRecorder()
	handler.UpdateProfile(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status code 401, got %d", res.StatusCode)
	}
}
