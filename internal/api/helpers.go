// Package api serves the data endpoint remote admin panels and the storefront
// talk to. One path multiplexes every collection through its type parameter.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/debemdeboas/yasny-slukh/internal/config"
	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/debemdeboas/yasny-slukh/internal/repository"
	"github.com/debemdeboas/yasny-slukh/internal/transfer"
	"github.com/rs/zerolog"
)

var apiLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	apiLogger = l
}

// Error codes of the error body.
const (
	CodeInvalidType      = "invalid_type"
	CodeMissingID        = "missing_id"
	CodeInvalidBody      = "invalid_body"
	CodeInvalidStatus    = "invalid_status"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeInternal         = "internal_error"
)

const (
	msgInvalidType = "Invalid type parameter"
	msgMissingID   = "Missing id"
	msgBulkSaved   = "Bulk data saved successfully"
	msgDeleted     = "Deleted successfully"
)

// Error is the body of every failed request.
type Error struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

// Message is the body of requests that return no data.
type Message struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		apiLogger.Error().Err(err).Msg("Error writing response")
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, Error{Code: code, Message: msg})
}

// writeStoreError maps a store failure to a status code.
func writeStoreError(w http.ResponseWriter, err error) {
	var fe *transfer.FormatError
	var te *json.UnmarshalTypeError
	var se *json.SyntaxError
	switch {
	case errors.Is(err, repository.ErrOrderNotFound), errors.Is(err, repository.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, model.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, CodeInvalidStatus, err.Error())
	case errors.Is(err, repository.ErrDuplicateID):
		writeError(w, http.StatusConflict, CodeConflict, err.Error())
	case errors.As(err, &fe), errors.As(err, &te), errors.As(err, &se):
		writeError(w, http.StatusBadRequest, CodeInvalidBody, err.Error())
	default:
		apiLogger.Error().Err(err).Msg("Store operation failed")
		writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
	}
}

// readObject reads the request body, which must be one JSON object, and
// returns it along with its id member.
func readObject(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, transfer.MaxDocumentSize))
	if err != nil {
		return nil, "", &transfer.FormatError{Err: err}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, "", &transfer.FormatError{Err: fmt.Errorf("body must be a JSON object")}
	}
	var id string
	if raw, ok := obj["id"]; ok {
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, "", &transfer.FormatError{Err: fmt.Errorf("id must be a string")}
		}
	}
	return data, id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	data, _, err := readObject(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &transfer.FormatError{Err: err}
	}
	return nil
}

// records returns the JSON forms of recs, which always carry their id.
func records(recs []model.RawRecord) []json.RawMessage {
	out := make([]json.RawMessage, len(recs))
	for i, rec := range recs {
		out[i] = rec.Data
	}
	return out
}
