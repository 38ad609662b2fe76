package server

import (
	"encoding/json"
	"net/http"

	"github.com/lvillar/marginblank"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Kind: "BadRequest"})
}

// writeError reports err with its operator message and a status picked by
// its kind.
func writeError(w http.ResponseWriter, err error) {
	kind := marginblank.KindOf(err)
	writeJSON(w, statusFor(kind), errorBody{Error: marginblank.Message(err), Kind: kind.String()})
}

func statusFor(k marginblank.Kind) int {
	switch k {
	case marginblank.KindNoFileSelected, marginblank.KindInvalidMargin:
		return http.StatusBadRequest
	case marginblank.KindPageIndex:
		return http.StatusNotFound
	case marginblank.KindDocumentOpen, marginblank.KindRender:
		return http.StatusUnprocessableEntity
	case marginblank.KindConversion:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
