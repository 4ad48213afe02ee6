// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

// Package answer turns untrusted model output into a validated [api.Answer].
package answer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/alan-mat/webanswer/internal/api"
)

const (
	MinChoice = 1
	MaxChoice = 10

	// FormatHTTPURL names the schema format accepted for sources.
	FormatHTTPURL = "http-url"
)

// ValidationError describes why model output was rejected.
// Field is empty when the output as a whole is unusable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", api.ErrOutputValidation, e.Reason)
	}
	return fmt.Sprintf("%s: field '%s': %s", api.ErrOutputValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == api.ErrOutputValidation
}

type httpURLChecker struct{}

// IsFormat accepts absolute http and https URLs with a host.
// Non-string values are left to the type keyword.
func (httpURLChecker) IsFormat(input interface{}) bool {
	s, ok := input.(string)
	if !ok {
		return true
	}
	return IsHTTPURL(s)
}

func IsHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func init() {
	gojsonschema.FormatCheckers.Add(FormatHTTPURL, httpURLChecker{})
}

// Schema describes the Answer object the model is asked to produce.
func Schema() *api.Schema {
	minChoice, maxChoice := float64(MinChoice), float64(MaxChoice)
	minLength := int64(1)

	return &api.Schema{
		Type:  api.TypeObject,
		Title: "Answer",
		Properties: map[string]*api.Schema{
			"id": {
				Type:        api.TypeInteger,
				Description: "Identifier of the request, echoed back unchanged.",
			},
			"answer": {
				Type:        api.TypeInteger,
				Nullable:    true,
				Minimum:     &minChoice,
				Maximum:     &maxChoice,
				Description: "Number of the selected choice, or null when the question has no choices.",
			},
			"reasoning": {
				Type:        api.TypeString,
				MinLength:   &minLength,
				Description: "Short explanation of the answer.",
			},
			"sources": {
				Type:        api.TypeArray,
				Items:       &api.Schema{Type: api.TypeString, Format: FormatHTTPURL},
				Description: "Links from the provided context that support the answer.",
			},
		},
		Required: []string{"id", "reasoning", "sources"},
	}
}

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(Schema()))
})

// Parse validates raw against the Answer schema and decodes it.
// The decoded id must equal wantID. Any failure is a *ValidationError,
// no field is ever defaulted or repaired.
func Parse(raw string, wantID int64) (*api.Answer, error) {
	data := []byte(strings.TrimSpace(raw))
	if !json.Valid(data) {
		return nil, &ValidationError{Reason: "output is not a valid JSON document"}
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile answer schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	if !result.Valid() {
		return nil, toValidationError(result.Errors())
	}

	var a api.Answer
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&a); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &ValidationError{Field: typeErr.Field, Reason: err.Error()}
		}
		return nil, &ValidationError{Reason: err.Error()}
	}

	if a.ID != wantID {
		return nil, &ValidationError{
			Field:  "id",
			Reason: fmt.Sprintf("expected %d, received %d", wantID, a.ID),
		}
	}

	if a.Sources == nil {
		a.Sources = []string{}
	}

	return &a, nil
}

func toValidationError(errs []gojsonschema.ResultError) *ValidationError {
	if len(errs) == 0 {
		return &ValidationError{Reason: "output does not match the answer schema"}
	}

	first := errs[0]
	field := first.Field()
	if field == gojsonschema.STRING_CONTEXT_ROOT {
		field = ""
	}

	// "required" errors are reported on the parent, name the missing field instead
	if first.Type() == "required" {
		if prop, ok := first.Details()["property"].(string); ok {
			field = strings.TrimPrefix(field+"."+prop, ".")
		}
	}

	return &ValidationError{Field: field, Reason: first.Description()}
}
