package build

import (
	"fmt"
	"sort"

	"github.com/svclabs/swaggersvc/internal/model"
)

// transformer converts loosely typed source schema fragments into compiled
// schemas, registering anonymous models it discovers along the way. Field
// renames between the formats: paramType becomes location, defaultValue
// becomes default, the external required list becomes per-property flags.
type transformer struct {
	registry *model.Registry
	document string // source document, for error context
}

// transform compiles one source fragment. defaultLoc applies when the
// fragment declares no location of its own: query for operation parameters,
// json for object properties.
//
// Inputs are defaulted rather than rejected wherever possible; the only
// fatal shape is an array item that references a model the registry has
// never seen.
func (t *transformer) transform(fragment map[string]any, defaultLoc model.Location) (*model.Schema, error) {
	if ref := str(fragment["$ref"]); ref != "" {
		return &model.Schema{
			Name:     str(fragment["name"]),
			Ref:      ref,
			Location: defaultLoc,
		}, nil
	}

	s := &model.Schema{
		Name:        str(fragment["name"]),
		Description: str(fragment["description"]),
		Location:    model.Location(str(fragment["paramType"])),
		Default:     fragment["defaultValue"],
	}
	if s.Location == "" {
		s.Location = defaultLoc
	}
	if req, ok := fragment["required"].(bool); ok {
		s.Required = req
	}
	if enum, ok := fragment["enum"].([]any); ok {
		s.Enum = enum
	}

	srcType := str(fragment["type"])
	rawProps, propsDeclared := fragment["properties"]
	items, hasItems := fragment["items"].(map[string]any)

	switch {
	case hasItems:
		// Items force the array kind regardless of the declared type.
		s.Kind = model.Array
	case srcType == "" && propsDeclared:
		s.Kind = model.Object
	default:
		s.Kind = model.CanonicalOf(srcType, str(fragment["format"]))
		if !s.Kind.Canonical() && t.registry.Has(srcType) {
			// A type token naming a registered model is a reference; the
			// use-site name, location and required flag stay on the schema.
			s.Kind = ""
			s.Ref = srcType
			return s, nil
		}
	}

	switch s.Kind {
	case model.Array:
		item, err := t.transformItems(items)
		if err != nil {
			return nil, err
		}
		s.Items = item

	case model.Object:
		// A declared-but-empty property map stays present: it is a closed
		// empty object, not a free-form map.
		s.Properties = make(map[string]*model.Schema)
		s.HasProperties = propsDeclared
		if ap, ok := fragment["additionalProperties"].(bool); ok {
			s.AdditionalProperties = ap
		}
		props, _ := rawProps.(map[string]any)
		requiredList := stringSet(fragment["required"])
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			pf, ok := props[name].(map[string]any)
			if !ok {
				pf = map[string]any{}
			}
			prop, err := t.transform(pf, model.LocJSON)
			if err != nil {
				return nil, err
			}
			prop.Name = name
			if requiredList[name] {
				prop.Required = true
			}
			s.Properties[name] = prop
		}
	}

	return s, nil
}

// transformItems compiles an array's item schema. A named reference must
// already be registered; an inline literal is registered as an anonymous
// model and referenced by its synthesized name, which is how nested literal
// schemas acquire stable names.
func (t *transformer) transformItems(items map[string]any) (*model.Schema, error) {
	if items == nil {
		return nil, nil
	}
	if ref := str(items["$ref"]); ref != "" {
		if !t.registry.Has(ref) {
			return nil, &model.BuildError{
				Code:     model.DanglingReference,
				Message:  fmt.Sprintf("%s: array items reference unknown model %q", t.document, ref),
				Document: t.document,
				Name:     ref,
			}
		}
		return &model.Schema{Ref: ref}, nil
	}

	name := t.registry.AnonymousName(items)
	if !t.registry.Has(name) {
		item, err := t.transform(items, model.LocJSON)
		if err != nil {
			return nil, err
		}
		t.registry.Register(name, item)
	}
	return &model.Schema{Ref: name}, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// stringSet reads a source required list, which is either a list of
// property names or absent (the boolean form is handled at the fragment
// level).
func stringSet(v any) map[string]bool {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	set := make(map[string]bool, len(list))
	for _, e := range list {
		if s, ok := e.(string); ok {
			set[s] = true
		}
	}
	return set
}
