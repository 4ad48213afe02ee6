package api

import "encoding/json"

type DataType string

const (
	TypeString  DataType = "string"
	TypeNumber  DataType = "number"
	TypeInteger DataType = "integer"
	TypeBoolean DataType = "boolean"
	TypeArray   DataType = "array"
	TypeObject  DataType = "object"
)

// Schema is an incomplete OpenAPI 3.0 schema object.
// It marshals to an equivalent JSON Schema document, rendering
// Nullable as a union with the "null" type.
type Schema struct {
	Description string             `json:"description,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Title       string             `json:"title,omitempty"`
	Type        DataType           `json:"-"`
	Nullable    bool               `json:"-"`
	Format      string             `json:"format,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
	MinLength   *int64             `json:"minLength,omitempty"`
}

func (s Schema) MarshalJSON() ([]byte, error) {
	type Alias Schema

	var typ any
	switch {
	case s.Type == "":
		typ = nil
	case s.Nullable:
		typ = []DataType{s.Type, "null"}
	default:
		typ = s.Type
	}

	return json.Marshal(&struct {
		Type any `json:"type,omitempty"`
		Alias
	}{
		Type:  typ,
		Alias: (Alias)(s),
	})
}
