// Package form decodes and validates HTML form submissions.
package form

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	v10 "github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/outpost-labs/basecamp"
)

// A Decoder maps POST form values onto a struct via "schema" tags
// and checks the result against "validate" tag rules.
type Decoder struct {
	dec   *schema.Decoder
	valid *v10.Validate
}

func NewDecoder() *Decoder {
	dec := schema.NewDecoder()
	// unknown keys include the anti-forgery token field
	dec.IgnoreUnknownKeys(true)

	valid := v10.New()
	valid.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("schema"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return &Decoder{dec: dec, valid: valid}
}

// Decode parses the request's form body into structPtr and validates it.
// Failed validation returns ValidationErrors wrapping basecamp.ErrNotValid.
func (d *Decoder) Decode(r *http.Request, structPtr any) error {
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: cannot parse form: %s", basecamp.ErrNotValid, err)
	}

	if err := d.dec.Decode(structPtr, r.PostForm); err != nil {
		return fmt.Errorf("%w: cannot decode form: %s", basecamp.ErrNotValid, err)
	}

	err := d.valid.Struct(structPtr)
	if err == nil {
		return nil
	}

	var errs v10.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	var validationErrs ValidationErrors
	for _, ve := range errs {
		rule := ve.Tag()
		if ve.Param() != "" {
			rule += "=" + ve.Param()
		}

		validationErrs = append(validationErrs, ValidationError{
			Field: ve.Field(),
			Rule:  rule,
		})
	}

	return validationErrs
}

// A ValidationError describes one field failing one rule.
type ValidationError struct {
	Field string
	Rule  string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: failed %q", ve.Field, ve.Rule)
}

type ValidationErrors []ValidationError

func (ves ValidationErrors) Error() string {
	strs := make([]string, 0, len(ves))
	for _, ve := range ves {
		strs = append(strs, ve.Error())
	}

	return strings.Join(strs, "; ")
}

// Is matches ValidationErrors to basecamp.ErrNotValid for errors.Is checks.
func (ves ValidationErrors) Is(target error) bool { return target == basecamp.ErrNotValid }
