package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	ierr "iva-service/internal/errors"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondWithErr answers with the status of err's kind. Internal errors are
// logged and hidden from the client.
func respondWithErr(w http.ResponseWriter, r *http.Request, err error) {
	code := ierr.HTTPStatusFromErr(err)
	if code >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
		respondWithError(w, code, "internal server error")
		return
	}
	respondWithError(w, code, err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Error marshaling JSON response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return ierr.Mark(ierr.Wrap(err, "invalid request payload"), ierr.ErrValidation)
	}
	return nil
}
