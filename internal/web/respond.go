// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/Imfractical/uprofile/internal/validation"
	"github.com/Imfractical/uprofile/pkg/errutil"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

var shape = newShapeValidator()

func newShapeValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

func writeOutcome(w http.ResponseWriter, out validation.Outcome) {
	writeJSON(w, http.StatusUnprocessableEntity, out)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// decode reads a JSON body into dst and checks its shape. It writes the
// response and returns false when the request cannot proceed.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeMessage(w, http.StatusBadRequest, "request body is not valid JSON")
		return false
	}
	if err := shape.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			writeMessage(w, http.StatusBadRequest, "invalid request")
			return false
		}
		writeOutcome(w, shapeOutcome(fieldErrs))
		return false
	}
	return true
}

func shapeOutcome(errs validator.ValidationErrors) validation.Outcome {
	var out validation.Outcome
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			out.Add(fe.Field(), validation.CodeRequired, "This field is required")
		case "max":
			out.Add(fe.Field(), validation.CodeTooLong, fmt.Sprintf("Ensure this value has at most %s characters", fe.Param()))
		case "datetime":
			out.Add(fe.Field(), validation.CodeInvalid, "Enter a valid date in YYYY-MM-DD format")
		default:
			out.Add(fe.Field(), validation.CodeInvalid, "Enter a valid value")
		}
	}
	return out
}

// writeError maps a service error to a response. Unexpected errors are
// logged and reported without detail.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch errutil.Code(err) {
	case "SESSION_INVALID", "SESSION_EXPIRED", "SESSION_NOT_FOUND":
		h.clearSessionCookie(w)
		writeMessage(w, http.StatusUnauthorized, "authentication required")
	case "ACCOUNT_NOT_FOUND", "PROFILE_NOT_FOUND":
		writeMessage(w, http.StatusNotFound, "account not found")
	default:
		errutil.LogError(h.logger.With(
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
		), "request failed", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
