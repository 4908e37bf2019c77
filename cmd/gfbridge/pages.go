package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-gfbridge/pkg/fields"
	"github.com/goliatone/go-gfbridge/pkg/forwarder"
	"github.com/goliatone/go-gfbridge/pkg/model"
	"github.com/goliatone/go-gfbridge/pkg/renderers/contact"
	"github.com/goliatone/go-gfbridge/pkg/submission"
	"github.com/goliatone/go-gfbridge/pkg/upstream"
	"github.com/goliatone/go-gfbridge/pkg/wpgraphql"
)

const maxFormBytes = 1 << 20

// showForm renders an empty contact form for /forms/{id}.
func (s *server) showForm(w http.ResponseWriter, r *http.Request) {
	formID, view, ok := s.loadView(w, r)
	if !ok {
		return
	}
	s.logger.Debug("render contact form", "form_id", formID, "fields", len(view.Fields))
	s.writePage(w, r, http.StatusOK, view)
}

// submitForm handles the no-script POST of the rendered form: it relays the
// values through the forwarder and re-renders with the outcome.
func (s *server) submitForm(w http.ResponseWriter, r *http.Request) {
	formID, view, ok := s.loadView(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	values := make(map[string]any, len(r.PostForm))
	for key, entries := range r.PostForm {
		if len(entries) > 0 {
			values[key] = entries[0]
		}
	}
	body := make(map[string]any, len(values)+1)
	for key, value := range values {
		body[key] = value
	}
	body["form_id"] = strconv.Itoa(formID)

	status := http.StatusOK
	view.State = submission.State{FieldErrors: map[string]string{}}
	view.Values = values

	raw, err := s.forwarder.Forward(r.Context(), forwarder.Request{Body: body})
	switch upErr, isUpstream := upstream.As(err); {
	case err == nil:
		var result map[string]any
		_ = json.Unmarshal(raw, &result)
		if valid, ok := result["is_valid"].(bool); ok && !valid {
			messages, _ := model.ValidationMessages(result["validation_messages"])
			if messages == nil {
				messages = map[string]string{}
			}
			status = http.StatusUnprocessableEntity
			view.State.FieldErrors = messages
			s.logger.Info("contact form rejected", "form_id", formID, "fields", len(messages))
			break
		}
		view.State.Success = true
		view.State.ConfirmationType, _ = result["confirmation_type"].(string)
		view.State.ConfirmationMessage, _ = result["confirmation_message"].(string)
		view.Values = nil
	case isUpstream && upErr.Kind == upstream.KindValidation:
		status = upErr.StatusCode()
		view.State.FieldErrors = upErr.Messages
	case isUpstream:
		status = upErr.StatusCode()
		view.State.ErrorMsg = upErr.PublicMessage()
	default:
		status = http.StatusInternalServerError
		view.State.ErrorMsg = submission.DefaultErrorMessage
	}
	if err != nil {
		s.logger.Warn("contact form submission failed", "form_id", formID, "status", status, "error", err)
	}
	s.writePage(w, r, status, view)
}

func (s *server) loadView(w http.ResponseWriter, r *http.Request) (int, contact.View, bool) {
	formID, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil || formID <= 0 {
		http.NotFound(w, r)
		return 0, contact.View{}, false
	}

	schema, err := s.graphql.FormFields(r.Context(), formID)
	if err != nil {
		if errors.Is(err, wpgraphql.ErrFormNotFound) {
			http.NotFound(w, r)
			return 0, contact.View{}, false
		}
		s.logger.Error("load form fields", "form_id", formID, "error", err)
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return 0, contact.View{}, false
	}

	return formID, contact.View{
		FormID: formID,
		Title:  schema.Title,
		Action: "/forms/" + strconv.Itoa(formID),
		Fields: fields.MapFields(schema.Fields),
	}, true
}

func (s *server) writePage(w http.ResponseWriter, r *http.Request, status int, view contact.View) {
	page, err := s.renderer.Render(r.Context(), view)
	if err != nil {
		s.logger.Error("render contact form", "form_id", view.FormID, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", s.renderer.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(page)
}
