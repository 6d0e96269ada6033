package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/gateway"
	"github.com/mmynk/tuitionbook/internal/storage"
)

// envelope is the body of every response: status, msg and data, plus any
// top-level extras such as access_token or order_id.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// success writes a 200 success envelope. extra members are merged in at the
// top level.
func success(w http.ResponseWriter, msg string, data any, extra envelope) {
	if data == nil {
		data = []any{}
	}
	body := envelope{"status": gateway.StatusSuccess, "msg": msg, "data": data}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// failure writes an error envelope.
func failure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{"status": gateway.StatusError, "msg": msg, "data": []any{}})
}

// decode reads a JSON body into form and validates it. On failure the error
// envelope has been written and false is returned.
func decode(w http.ResponseWriter, r *http.Request, form any) bool {
	if err := json.NewDecoder(r.Body).Decode(form); err != nil {
		failure(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := forms.Validate(form); err != nil {
		var fe forms.FieldErrors
		if errors.As(err, &fe) {
			failure(w, http.StatusUnprocessableEntity, fe.First())
			return false
		}
		failure(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// storeFailure maps a storage error about a record of kind what ("Student",
// "Class") onto a response. Unknown errors are logged and answered with 500.
func storeFailure(w http.ResponseWriter, what string, err error, attrs ...any) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		failure(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, storage.ErrConflict):
		failure(w, http.StatusConflict, what+" already exists")
	default:
		slog.Error(what+" storage failed", append(attrs, "error", err)...)
		failure(w, http.StatusInternalServerError, "Something went wrong, please try again")
	}
}
