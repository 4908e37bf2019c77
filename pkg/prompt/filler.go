package prompt

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/mail"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-gfbridge/pkg/model"
	"github.com/goliatone/go-gfbridge/pkg/submission"
)

// DefaultMaxAttempts bounds how many times a rejected submission is retried.
const DefaultMaxAttempts = 3

var (
	ErrCancelled      = errors.New("prompt: submission cancelled")
	ErrTooManyRetries = errors.New("prompt: too many rejected attempts")
)

// Submitter is the part of a submission.Session the filler drives.
type Submitter interface {
	Set(key string, value any)
	Values() map[string]any
	Submit(ctx context.Context) (model.Outcome, error)
}

var _ Submitter = (*submission.Session)(nil)

// Filler prompts for each contact field and submits the answers.
type Filler struct {
	driver      Driver
	maxAttempts int
	confirm     bool
}

type FillerOption func(*Filler)

// WithMaxAttempts caps retries after validation failures.
func WithMaxAttempts(n int) FillerOption {
	return func(f *Filler) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithoutConfirm submits without asking first.
func WithoutConfirm() FillerOption {
	return func(f *Filler) {
		f.confirm = false
	}
}

func NewFiller(driver Driver, opts ...FillerOption) *Filler {
	f := &Filler{driver: driver, maxAttempts: DefaultMaxAttempts, confirm: true}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fill asks for every field, submits, and on a validation failure asks again
// for the rejected fields only. Transport failures are returned as the
// outcome without retrying.
func (f *Filler) Fill(ctx context.Context, fields []model.ContactField, session Submitter) (model.Outcome, error) {
	if f == nil || f.driver == nil {
		return model.Outcome{}, errors.New("prompt: driver is nil")
	}
	if session == nil {
		return model.Outcome{}, errors.New("prompt: session is nil")
	}
	if len(fields) == 0 {
		return model.Outcome{}, errors.New("prompt: form has no supported fields")
	}

	pending := fields
	for attempt := 1; ; attempt++ {
		if err := f.ask(ctx, pending, session); err != nil {
			return model.Outcome{}, err
		}

		if f.confirm {
			ok, err := f.driver.Confirm(ctx, ConfirmConfig{Message: "Send this message?", Default: true})
			if err != nil {
				return model.Outcome{}, err
			}
			if !ok {
				return model.Outcome{}, ErrCancelled
			}
		}

		outcome, err := session.Submit(ctx)
		if err != nil {
			return model.Outcome{}, err
		}

		switch outcome.Kind {
		case model.OutcomeSuccess:
			msg := "Thanks! Your message has been sent."
			if outcome.Confirmation != nil && strings.TrimSpace(outcome.Confirmation.Message) != "" {
				msg = plainText(outcome.Confirmation.Message)
			}
			return outcome, f.driver.Info(ctx, msg)
		case model.OutcomeTransportFailure:
			return outcome, f.driver.Info(ctx, "Error: "+outcome.Message)
		}

		if err := f.reportFieldErrors(ctx, fields, outcome.Messages); err != nil {
			return outcome, err
		}
		if attempt >= f.maxAttempts {
			return outcome, ErrTooManyRetries
		}
		pending = rejectedFields(fields, outcome.Messages)
		if len(pending) == 0 {
			pending = fields
		}
	}
}

func (f *Filler) ask(ctx context.Context, fields []model.ContactField, session Submitter) error {
	values := session.Values()
	for _, field := range fields {
		current := ""
		if value, ok := values[field.RemoteKey]; ok && value != nil {
			current = fmt.Sprint(value)
		}

		var (
			answer string
			err    error
		)
		if field.Type == model.InputTextArea {
			answer, err = f.driver.TextArea(ctx, TextAreaConfig{
				Message:   label(field),
				Default:   current,
				Validator: validatorFor(field),
			})
		} else {
			answer, err = f.driver.Input(ctx, InputConfig{
				Message:   label(field),
				Default:   current,
				Validator: validatorFor(field),
			})
		}
		if err != nil {
			return err
		}
		session.Set(field.RemoteKey, answer)
	}
	return nil
}

func (f *Filler) reportFieldErrors(ctx context.Context, fields []model.ContactField, messages map[string]string) error {
	if len(messages) == 0 {
		return f.driver.Info(ctx, "The form was rejected. Please check your answers.")
	}
	labels := make(map[string]string, len(fields))
	for _, field := range fields {
		parent := model.ParentID(field.RemoteKey)
		if _, ok := labels[parent]; !ok {
			labels[parent] = field.Label
		}
	}
	ids := make([]string, 0, len(messages))
	for id := range messages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		name := labels[id]
		if name == "" {
			name = "Field " + id
		}
		if err := f.driver.Info(ctx, fmt.Sprintf("%s: %s", name, messages[id])); err != nil {
			return err
		}
	}
	return nil
}

func rejectedFields(fields []model.ContactField, messages map[string]string) []model.ContactField {
	var out []model.ContactField
	for _, field := range fields {
		if _, ok := messages[model.ParentID(field.RemoteKey)]; ok {
			out = append(out, field)
		}
	}
	return out
}

func label(field model.ContactField) string {
	if field.Required {
		return field.Label + " *"
	}
	return field.Label
}

func validatorFor(field model.ContactField) func(string) error {
	return func(answer string) error {
		trimmed := strings.TrimSpace(answer)
		if trimmed == "" {
			if field.Required {
				return fmt.Errorf("%s is required", field.Label)
			}
			return nil
		}
		if field.Type == model.InputEmail {
			if _, err := mail.ParseAddress(trimmed); err != nil {
				return fmt.Errorf("%s must be a valid email address", field.Label)
			}
		}
		return nil
	}
}

// plainText drops markup from confirmation HTML for terminal output.
func plainText(markup string) string {
	stripped := html.UnescapeString(bluemonday.StrictPolicy().Sanitize(markup))
	return strings.Join(strings.Fields(stripped), " ")
}
