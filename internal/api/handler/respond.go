package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"customer-registry/internal/api/handler/dto"
	"customer-registry/internal/pkg/apperrors"
)

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, message, field, code := http.StatusInternalServerError, "An unexpected error occurred.", "", ""
	var details []dto.ErrorDetail
	var violations apperrors.ValidationErrors
	var validationError *apperrors.ValidationError

	switch {
	case errors.As(err, &violations):
		status, message = http.StatusBadRequest, "Invalid payload value(s)."
		for _, v := range violations {
			details = append(details, dto.ErrorDetail{Field: v.Field, Message: v.Message})
		}
	case errors.As(err, &validationError):
		status, message, field = http.StatusBadRequest, validationError.Message, validationError.Field
	case errors.Is(err, apperrors.ErrNotFound):
		status, message, code = http.StatusNotFound, "Customer not found.", "NOT_FOUND"
	case errors.Is(err, apperrors.ErrAlreadyExists):
		status, message, code = http.StatusConflict, "Customer already exists.", "ALREADY_EXISTS"
	case errors.Is(err, apperrors.ErrAddressNotFound):
		status, message, code = http.StatusUnprocessableEntity, "Address could not be resolved to coordinates.", "ADDRESS_NOT_FOUND"
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "Unauthorized"
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	resp := dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Code:    code,
			Message: message,
			Field:   field,
		},
		Details: details,
	}
	respondJSON(w, status, resp)
}
