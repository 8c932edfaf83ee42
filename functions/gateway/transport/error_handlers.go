package transport

import (
	"encoding/json"
	"log"
	"net/http"

	internal_types "github.com/soulpass/api/functions/gateway/types"
)

type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func statusForKind(kind internal_types.ErrorKind) int {
	switch kind {
	case internal_types.KindValidation:
		return http.StatusBadRequest
	case internal_types.KindNotFound:
		return http.StatusNotFound
	case internal_types.KindForbidden:
		return http.StatusForbidden
	case internal_types.KindConflict, internal_types.KindPrecondition, internal_types.KindCapacityExceeded:
		return http.StatusConflict
	case internal_types.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// SendDomainErr maps a service error onto the stable error contract:
// an HTTP status derived from the error kind and a JSON body carrying the
// machine-readable kind plus a human-readable message.
func SendDomainErr(w http.ResponseWriter, err error) {
	kind := internal_types.KindOf(err)
	status := statusForKind(kind)
	log.Printf("ERR (%d %s): %v", status, kind, err)

	msg := err.Error()
	if kind == internal_types.KindInternal {
		// do not leak internals to clients
		msg = http.StatusText(http.StatusInternalServerError)
	}

	body, marshalErr := json.Marshal(errorPayload{Kind: string(kind), Message: msg})
	if marshalErr != nil {
		log.Println("ERR: Error marshaling error payload:", marshalErr)
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
