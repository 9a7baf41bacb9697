package api

import (
	"encoding/json"
	"io"
	"net/http"

	apperrors "jobtrail/internal/common/errors"
	"jobtrail/internal/common/validation"
)

const maxBodyBytes = 1 << 20

const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

// Notification is the toast shown to the user after an action.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

type envelope struct {
	Data         interface{}              `json:"data,omitempty"`
	Error        *apperrors.StandardError `json:"error,omitempty"`
	Notification *Notification            `json:"notification,omitempty"`
	Redirect     string                   `json:"redirect,omitempty"`
}

const genericFailure = "Something went wrong. Please try again."

func (s *Server) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.Warn("failed to write response", map[string]interface{}{"error": err.Error()})
		}
	}
}

// done answers a successful mutation with its re-fetched result and a toast.
func (s *Server) done(w http.ResponseWriter, status int, data interface{}, title, description string) {
	s.JSON(w, status, envelope{
		Data:         data,
		Notification: &Notification{Title: title, Description: description, Variant: VariantDefault},
	})
}

// fail maps err to its HTTP status. A non-empty title adds a destructive
// toast for failed mutations.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, title string) {
	stdErr := apperrors.Normalize(err)
	status := apperrors.HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
		"code":   string(stdErr.Code),
		"status": status,
	}
	if status >= http.StatusInternalServerError {
		fields["error"] = err.Error()
		s.logger.Error("request failed", fields)
	} else {
		s.logger.Debug("request rejected", fields)
	}

	body := envelope{Error: stdErr}
	if title != "" {
		description := stdErr.Message
		if status >= http.StatusInternalServerError {
			description = genericFailure
		} else if stdErr.Details != "" {
			description = stdErr.Details
		}
		body.Notification = &Notification{Title: title, Description: description, Variant: VariantDestructive}
	}
	s.JSON(w, status, body)
}

// decode validates the body against schema and unmarshals it into dst.
func decode(r *http.Request, schema *validation.Schema, dst interface{}) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperrors.NewValidationError("could not read request body")
	}
	result, err := schema.ValidateJSON(raw)
	if err != nil {
		return apperrors.NewValidationError("request body is not valid JSON")
	}
	if err := result.AsError(); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}
