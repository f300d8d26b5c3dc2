package model

// Compiled service model consumed by the response handler and exporters.

// Kind is the canonical type of a compiled schema.
type Kind string

const (
	String  Kind = "string"
	Integer Kind = "integer"
	Number  Kind = "number"
	Boolean Kind = "boolean"
	Date    Kind = "date"
	Object  Kind = "object"
	Array   Kind = "array"
)

// Primitive reports whether k is one of the scalar canonical kinds.
func (k Kind) Primitive() bool {
	switch k {
	case String, Integer, Number, Boolean, Date:
		return true
	}
	return false
}

// Canonical reports whether k belongs to the canonical set at all. Unknown
// source type tokens pass through the type mapper unchanged, so a compiled
// schema may carry a non-canonical kind; callers treat those as extension
// points.
func (k Kind) Canonical() bool {
	return k.Primitive() || k == Object || k == Array
}

// Location names where a parameter or property travels in a request or
// response.
type Location string

const (
	LocQuery  Location = "query"
	LocURI    Location = "uri"
	LocHeader Location = "header"
	LocBody   Location = "body"
	LocJSON   Location = "json"
)

// ServiceModel is the root of a compiled service description: service
// metadata plus the model and operation registries. It is built once by the
// builder and never mutated afterward; concurrent readers need no
// synchronization.
type ServiceModel struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	APIVersion  string                `json:"apiVersion,omitempty"`
	BaseURL     string                `json:"baseUrl"`
	Models      *Registry             `json:"models"`
	Operations  map[string]*Operation `json:"operations"`
}

// Operation returns the named operation, or nil.
func (m *ServiceModel) Operation(name string) *Operation {
	if m == nil {
		return nil
	}
	return m.Operations[name]
}

// Schema is a compiled parameter or model definition. The source format
// models parameters and data models with one shape, so the compiled form
// does too: a parameter is a schema with a name and a location.
//
// When Ref is set the schema is a reference to a registry entry by name;
// Name, Location and Required still describe the use site, the remaining
// structural fields come from the registry entry.
type Schema struct {
	Name        string             `json:"name,omitempty"`
	Kind        Kind               `json:"kind,omitempty"`
	Description string             `json:"description,omitempty"`
	Ref         string             `json:"$ref,omitempty"`
	Location    Location           `json:"location,omitempty"`
	Required    bool               `json:"required,omitempty"`
	Default     any                `json:"default,omitempty"`
	Enum        []any              `json:"enum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`

	// AdditionalProperties is the open-world flag for object schemas.
	// Compiled objects default to closed (false) unless the source document
	// explicitly opened them; the source format's own default is open.
	AdditionalProperties bool `json:"additionalProperties,omitempty"`

	// HasProperties distinguishes an object declared with an empty property
	// map from a free-form object with none declared at all.
	HasProperties bool `json:"hasProperties,omitempty"`
}

// IsRef reports whether the schema is a by-name reference.
func (s *Schema) IsRef() bool { return s != nil && s.Ref != "" }

// ContractKind discriminates the closed response-contract union.
type ContractKind string

const (
	// ContractNone passes the raw response through undecoded.
	ContractNone ContractKind = "none"
	// ContractModel decodes into a primitive or model schema and validates.
	ContractModel ContractKind = "model"
	// ContractClass delegates to an externally registered decoder.
	ContractClass ContractKind = "class"
)

// ResponseContract is the compiled strategy for turning a raw response into
// a validated value.
type ResponseContract struct {
	Kind ContractKind `json:"kind"`
	// Schema is set for ContractModel. For ContractClass it carries the
	// contract inferred before an override replaced it, when there was one,
	// so decoders that expose a structural view can still be validated.
	Schema *Schema `json:"schema,omitempty"`
	// Class identifies the registered decoder for ContractClass.
	Class string `json:"class,omitempty"`
}

// Operation is one compiled, callable endpoint description.
type Operation struct {
	Name        string           `json:"name"`
	Method      string           `json:"method"`
	URI         string           `json:"uri"`
	Summary     string           `json:"summary,omitempty"`
	Description string           `json:"description,omitempty"`
	Parameters  []*Schema        `json:"parameters,omitempty"`
	Response    ResponseContract `json:"response"`
	Errors      []ErrorResponse  `json:"errorResponses,omitempty"`
}

// Parameter returns the named parameter, or nil.
func (o *Operation) Parameter(name string) *Schema {
	for _, p := range o.Parameters {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// ErrorResponse is one declared error outcome of an operation.
type ErrorResponse struct {
	Code   int    `json:"code"`
	Phrase string `json:"phrase,omitempty"`
}
