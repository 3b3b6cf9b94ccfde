// Package validate checks entity payloads at the C11 HTTP boundary before
// they reach a backend (spec §7 "CRUD: validation errors surface to the
// caller as a returned error; the DB remains unchanged").
//
// Grounded on the teacher's go.mod carrying both asaskevich/govalidator and
// go-ozzo/ozzo-validation as otherwise-unwired domain deps; govalidator
// checks the one URL-shaped scalar field (the feed URL) and ozzo-validation
// drives the struct-level required/in-set rules (title presence, source
// type, script type and event enums) the same way a real HTTP handler layer
// would reject a malformed payload before it reaches storage.
package validate

import (
	"fmt"

	"github.com/asaskevich/govalidator"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/zapfr/engine/internal/apperror"
	"github.com/zapfr/engine/internal/entity"
)

func invalid(op string, err error) error {
	if err == nil {
		return nil
	}
	return apperror.ConstraintViolation(op, err)
}

// Feed checks a subscribe/update payload: a non-empty, well-formed URL and,
// if present, a positive refresh interval.
func Feed(f *entity.Feed) error {
	if err := validation.ValidateStruct(f,
		validation.Field(&f.URL, validation.Required),
	); err != nil {
		return invalid("validate.Feed", err)
	}
	if !govalidator.IsURL(f.URL) {
		return invalid("validate.Feed", fmt.Errorf("url %q is not a valid URL", f.URL))
	}
	if f.RefreshInterval != nil && *f.RefreshInterval <= 0 {
		return invalid("validate.Feed", fmt.Errorf("refreshInterval must be positive, got %d", *f.RefreshInterval))
	}
	return nil
}

// Source checks a create/update payload: a title and a Type drawn from the
// fixed local/remote enum (spec §3).
func Source(s *entity.Source) error {
	err := validation.ValidateStruct(s,
		validation.Field(&s.Title, validation.Required),
		validation.Field(&s.Type, validation.Required, validation.In(entity.SourceLocal, entity.SourceRemote)),
	)
	return invalid("validate.Source", err)
}

// Script checks a create/update payload: a title, a Type from the
// implemented interpreter set, and RunOnEvents drawn from the fixed event
// enum (spec §3/§4.8; an unknown script type is a ConstraintViolation per
// spec §7).
func Script(s *entity.Script) error {
	if err := validation.ValidateStruct(s,
		validation.Field(&s.Title, validation.Required),
		validation.Field(&s.Type, validation.Required, validation.In(entity.ScriptTypeLua)),
	); err != nil {
		return invalid("validate.Script", err)
	}
	for _, ev := range s.RunOnEvents {
		if ev != entity.ScriptEventNewPost && ev != entity.ScriptEventUpdatePost {
			return invalid("validate.Script", fmt.Errorf("unknown script event %q", ev))
		}
	}
	return nil
}

// Folder checks a create/update payload: a non-empty title.
func Folder(f *entity.Folder) error {
	return invalid("validate.Folder", validation.ValidateStruct(f,
		validation.Field(&f.Title, validation.Required),
	))
}

// ScriptFolder checks a create/update payload: a non-empty title.
func ScriptFolder(sf *entity.ScriptFolder) error {
	return invalid("validate.ScriptFolder", validation.ValidateStruct(sf,
		validation.Field(&sf.Title, validation.Required),
	))
}
