package domain

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const clockLayout = "15:04"

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	validate     = newValidator()
)

// enum is implemented by the closed string types (tiers, statuses).
type enum interface{ Valid() bool }

// newValidator reports fields by their JSON names and adds the two rules the
// built-in tags lack: the loose email shape and closed enum membership.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(v.RegisterValidation("email_shape", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(enum)
		return ok && e.Valid()
	}))
	return v
}

// ValidEmail reports whether s has the local@domain.tld shape.
func ValidEmail(s string) bool {
	return validate.Var(s, "email_shape") == nil
}

// check runs the struct tags of v, skipping the Go fields named in except,
// and reports the first failing field as a ValidationError for entity.
func check(entity EntityType, v any, except ...string) error {
	var err error
	if len(except) > 0 {
		err = validate.StructExcept(v, except...)
	} else {
		err = validate.Struct(v)
	}
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return fmt.Errorf("validate %s: %w", entity, err)
	}
	fe := fields[0]
	return invalid(entity, fe.Field(), reason(fe))
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email_shape":
		return "invalid email"
	case "enum":
		return fmt.Sprintf("unknown value %q", fmt.Sprint(fe.Value()))
	case "datetime":
		if fe.Param() == clockLayout {
			return "must be HH:MM"
		}
		return "must be YYYY-MM-DD"
	case "min":
		switch fe.Kind() {
		case reflect.String:
			return "must be at least " + fe.Param() + " characters"
		case reflect.Slice:
			return "needs at least " + fe.Param() + " entry"
		}
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "cannot be negative"
	}
	return "failed " + fe.Tag()
}

// Normalize trims free-text fields and fills defaults. The receiver is a copy.
func (a Advisor) Normalize() Advisor {
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.TrimSpace(a.Email)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Zone = strings.TrimSpace(a.Zone)
	if a.Status == "" {
		a.Status = StatusActive
	}
	return a
}

// Validate checks the advisor fields accepted at the store boundary.
func (a Advisor) Validate() error {
	return check(EntityAdvisor, a)
}

// Normalize trims free-text fields and fills defaults.
func (c Client) Normalize() Client {
	c.Name = strings.TrimSpace(c.Name)
	c.TaxID = strings.TrimSpace(c.TaxID)
	c.Type = ClientType(strings.TrimSpace(string(c.Type)))
	c.ContactName = strings.TrimSpace(c.ContactName)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	c.City = strings.TrimSpace(c.City)
	c.Zone = strings.TrimSpace(c.Zone)
	if c.Status == "" {
		c.Status = StatusActive
	}
	return c
}

// Validate checks the client fields accepted at the store boundary. Type is
// free text and only has to be present.
func (c Client) Validate() error {
	return check(EntityClient, c)
}

// Normalize trims free-text fields, fills defaults and drops duplicate client
// ids while keeping the first occurrence order.
func (r Route) Normalize() Route {
	r.Date = strings.TrimSpace(r.Date)
	r.StartTime = strings.TrimSpace(r.StartTime)
	r.EndTime = strings.TrimSpace(r.EndTime)
	r.Zone = strings.TrimSpace(r.Zone)
	r.Vehicle = strings.TrimSpace(r.Vehicle)
	if r.Status == "" {
		r.Status = RoutePlanned
	}
	r.ClientIDs = dedupeIDs(r.ClientIDs)
	return r
}

// Validate checks the route fields that do not depend on other collections.
func (r Route) Validate() error {
	return r.validate()
}

// ValidateUpdate checks r as the replacement of stored. Deleting clients can
// leave a stored route with no clients; such a route may be edited without
// adding one. Any other edit keeps the one-client minimum.
func (r Route) ValidateUpdate(stored Route) error {
	if len(stored.ClientIDs) == 0 && len(r.ClientIDs) == 0 {
		return r.validate("ClientIDs")
	}
	return r.validate()
}

func (r Route) validate(except ...string) error {
	if err := check(EntityRoute, r, except...); err != nil {
		return err
	}
	if !ValidateRouteKm(r.KmStart, r.KmEnd) {
		return invalid(EntityRoute, "km_end", "final km cannot be lower than initial km")
	}
	return nil
}

// Normalize trims free-text fields.
func (s Survey) Normalize() Survey {
	s.Date = strings.TrimSpace(s.Date)
	s.Comments = strings.TrimSpace(s.Comments)
	return s
}

// Validate checks the survey fields that do not depend on other collections.
func (s Survey) Validate() error {
	return check(EntitySurvey, s)
}

// ClockTime formats t the way route start and end times are stored.
func ClockTime(t time.Time) string {
	return t.Format(clockLayout)
}

func dedupeIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
