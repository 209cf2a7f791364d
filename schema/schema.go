// Package schema provides strict JSON decoding with struct-tag validation.
//
// A Schema decodes a payload and reports whether it conforms, without ever
// panicking. Callers decide what a failure means: the cache treats it as a miss,
// the AniList client treats it as a hard error.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Schema decodes and validates values of type T
type Schema[T any] interface {
	// Decode parses data into T and validates the result
	Decode(data []byte) (T, error)

	// Validate checks an already constructed value
	Validate(value T) error
}

// ValidationError carries the translated field diagnostics of a failed validation
type ValidationError struct {
	Fields []string
	Err    error
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation failed: %v", e.Err)
	}
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// Unwrap returns the underlying validator error
func (e *ValidationError) Unwrap() error {
	return e.Err
}

var (
	vOnce  sync.Once
	vInst  *validator.Validate
	vTrans ut.Translator
)

// validate returns the process-wide validator, using json tag names in messages
func validate() (*validator.Validate, ut.Translator) {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		vInst = v
		vTrans = trans
	})
	return vInst, vTrans
}

// Strict is a Schema that rejects unknown fields, trailing data and any value
// failing its `validate` struct tags. T must be a struct type.
type Strict[T any] struct{}

// Decode implements Schema
func (s Strict[T]) Decode(data []byte) (T, error) {
	var zero T
	if len(bytes.TrimSpace(data)) == 0 {
		return zero, errors.New("empty payload")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var out T
	if err := dec.Decode(&out); err != nil {
		return zero, fmt.Errorf("decode: %w", err)
	}
	if dec.More() {
		return zero, errors.New("decode: unexpected trailing data")
	}

	if err := s.Validate(out); err != nil {
		return zero, err
	}
	return out, nil
}

// Validate implements Schema
func (Strict[T]) Validate(value T) error {
	v, trans := validate()

	err := v.Struct(value)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Translate(trans)))
		}
		return &ValidationError{Fields: fields, Err: err}
	}
	return &ValidationError{Err: err}
}
