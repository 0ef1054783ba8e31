package core

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9\-_.]+$`)

func identifierRules() []validation.Rule {
	return []validation.Rule{
		validation.Length(1, 255),
		validation.Match(identifierPattern).Error("must conform to the pattern " + identifierPattern.String()),
	}
}

var endpointURLRule = validation.By(func(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return errors.New("must be an absolute http(s) url")
	}
	return nil
})

// intRange checks an optional integer; zero is checked too, unlike
// validation.Min which treats it as empty.
func intRange(lo, hi int) validation.Rule {
	return validation.By(func(value any) error {
		ptr, _ := value.(*int)
		if ptr == nil {
			return nil
		}
		if *ptr < lo {
			return fmt.Errorf("must be no less than %d", lo)
		}
		if hi > 0 && *ptr > hi {
			return fmt.Errorf("must be no greater than %d", hi)
		}
		return nil
	})
}

func (r RetryStrategy) Validate() error {
	types := make([]any, 0, len(supportedRetryStrategies))
	for _, typ := range supportedRetryStrategies {
		types = append(types, typ)
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.In(types...).Error("must be one of "+strings.Join(supportedRetryStrategies, ", "))),
		validation.Field(&r.MaxRetries, intRange(0, 0)),
		validation.Field(&r.RetryDelay, intRange(0, 0)),
		validation.Field(&r.Deadline, intRange(0, 0)),
	)
}

func (a Application) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.UID, identifierRules()...),
		validation.Field(&a.Name, validation.Required),
		validation.Field(&a.RateLimit, intRange(1, 0)),
		validation.Field(&a.RetryStrategy),
	)
}

func (e Endpoint) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.UID, identifierRules()...),
		validation.Field(&e.URL, validation.Required, endpointURLRule),
		validation.Field(&e.Topics, validation.Length(1, 5)),
		validation.Field(&e.RateLimit, intRange(1, 0)),
	)
}

func (e Event) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.UID, identifierRules()...),
		validation.Field(&e.EventType, append([]validation.Rule{validation.Required}, identifierRules()...)...),
		validation.Field(&e.RetentionPeriod, intRange(5, 90)),
	)
}

// ValidateModel runs the model's validation rules and converts failures into a
// usage_error carrying one entry per field.
func ValidateModel(model string, v validation.Validatable) error {
	if v == nil {
		return newUsageErrorf("%s is required", model)
	}
	err := v.Validate()
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return &Error{
			Kind:    KindUsageError,
			Message: fmt.Sprintf("Invalid %s: %v", model, err),
			Cause:   err,
		}
	}
	flat := map[string]string{}
	flattenValidationErrors("", fieldErrs, flat)
	fields := make([]string, 0, len(flat))
	for field := range flat {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	items := make([]any, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+flat[field])
		items = append(items, map[string]any{"field": field, "message": flat[field]})
	}
	out := &Error{
		Kind:    KindUsageError,
		Message: fmt.Sprintf("Invalid %s: %s", model, strings.Join(parts, "; ")),
		Errors:  items,
		Cause:   err,
	}
	if len(fields) == 1 {
		out.Param = fields[0]
	}
	return out
}

func flattenValidationErrors(prefix string, errs validation.Errors, out map[string]string) {
	for field, err := range errs {
		if err == nil {
			continue
		}
		key := field
		if prefix != "" {
			key = prefix + "." + field
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			flattenValidationErrors(key, nested, out)
			continue
		}
		out[key] = err.Error()
	}
}
