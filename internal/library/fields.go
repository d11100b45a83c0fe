package library

import (
	"errors"
	"fmt"
	"maps"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// FieldKind describes how a draft value is validated and encoded.
type FieldKind int

const (
	KindText FieldKind = iota
	KindEmail
	KindInt
	KindList
	KindBool
	KindDate
	KindChoice
)

// DateLayout is the accepted input layout for KindDate fields.
const DateLayout = "2006-01-02"

// FieldSpec declares one editable field of a resource.
type FieldSpec struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	Options  []string // KindChoice only
}

// Fields is the string-valued draft form of an entity, keyed by wire name.
type Fields map[string]string

// Clone returns an independent copy.
func (f Fields) Clone() Fields {
	if f == nil {
		return Fields{}
	}
	return maps.Clone(f)
}

var (
	ErrLeadingSpace  = errors.New("must not start with a space")
	ErrRequired      = errors.New("is required")
	ErrInvalidEmail  = errors.New("is not a valid email address")
	ErrInvalidNumber = errors.New("is not a whole number")
	ErrInvalidBool   = errors.New("must be true or false")
	ErrInvalidDate   = errors.New("must be a date like 2006-01-02")
	ErrInvalidOption = errors.New("is not one of the allowed values")
)

// ValidationError reports a rejected field value. It never reaches the server.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s %s", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// CheckLeadingSpace rejects values whose first rune is whitespace.
func CheckLeadingSpace(field, value string) error {
	r, size := utf8.DecodeRuneInString(value)
	if size > 0 && unicode.IsSpace(r) {
		return &ValidationError{Field: field, Err: ErrLeadingSpace}
	}
	return nil
}

// FieldErrors collects per-field validation failures.
type FieldErrors map[string]*ValidationError

func (fe FieldErrors) Error() string {
	names := slices.Sorted(maps.Keys(fe))
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fe[name].Error())
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

// ValidateField checks a single value against its spec.
func ValidateField(spec FieldSpec, value string) *ValidationError {
	if err := CheckLeadingSpace(spec.Name, value); err != nil {
		return err.(*ValidationError)
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		if spec.Required {
			return &ValidationError{Field: spec.Name, Err: ErrRequired}
		}
		return nil
	}
	var err error
	switch spec.Kind {
	case KindEmail:
		if _, perr := mail.ParseAddress(trimmed); perr != nil || strings.Contains(trimmed, "<") {
			err = ErrInvalidEmail
		}
	case KindInt:
		if _, perr := strconv.ParseInt(trimmed, 10, 64); perr != nil {
			err = ErrInvalidNumber
		}
	case KindBool:
		if _, perr := strconv.ParseBool(trimmed); perr != nil {
			err = ErrInvalidBool
		}
	case KindDate:
		if _, perr := time.Parse(DateLayout, trimmed); perr != nil {
			err = ErrInvalidDate
		}
	case KindChoice:
		if !slices.Contains(spec.Options, trimmed) {
			err = ErrInvalidOption
		}
	}
	if err != nil {
		return &ValidationError{Field: spec.Name, Err: err}
	}
	return nil
}

// Validate checks every field in specs and returns nil when all pass.
func Validate(specs []FieldSpec, values Fields) FieldErrors {
	var errs FieldErrors
	for _, spec := range specs {
		if verr := ValidateField(spec, values[spec.Name]); verr != nil {
			if errs == nil {
				errs = FieldErrors{}
			}
			errs[spec.Name] = verr
		}
	}
	return errs
}

// Encode validates values and converts them into a create body. Empty
// optional fields are omitted.
func Encode(specs []FieldSpec, values Fields) (map[string]any, error) {
	return encode(specs, values, false)
}

// EncodeUpdate validates values and converts them into a PATCH body. Every
// schema field present in values is sent, so an emptied optional field
// clears the stored value: "" for text, [] for lists and null for numbers
// and booleans.
func EncodeUpdate(specs []FieldSpec, values Fields) (map[string]any, error) {
	return encode(specs, values, true)
}

func encode(specs []FieldSpec, values Fields, clearEmpty bool) (map[string]any, error) {
	if errs := Validate(specs, values); errs != nil {
		return nil, errs
	}
	body := make(map[string]any, len(specs))
	for _, spec := range specs {
		value, present := values[spec.Name]
		raw := strings.TrimSpace(value)
		if raw == "" {
			if clearEmpty && present {
				body[spec.Name] = emptyValue(spec.Kind)
			}
			continue
		}
		switch spec.Kind {
		case KindInt:
			n, _ := strconv.ParseInt(raw, 10, 64)
			body[spec.Name] = n
		case KindBool:
			b, _ := strconv.ParseBool(raw)
			body[spec.Name] = b
		case KindList:
			body[spec.Name] = SplitList(raw)
		default:
			body[spec.Name] = raw
		}
	}
	return body, nil
}

func emptyValue(kind FieldKind) any {
	switch kind {
	case KindList:
		return []string{}
	case KindInt, KindBool:
		return nil
	default:
		return ""
	}
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(raw string) []string {
	out := []string{}
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
