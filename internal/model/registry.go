package model

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

// anonNameMaxLen is the longest token join used verbatim as an anonymous
// model name; anything longer is hashed to a fixed-length identifier.
const anonNameMaxLen = 32

// Registry maps model names to compiled schemas. It is append-only while a
// service is being built and read-only afterward.
type Registry struct {
	defs map[string]*Schema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Schema)}
}

// Register inserts a schema under name, replacing any previous entry with
// the same name.
func (r *Registry) Register(name string, s *Schema) {
	if r.defs == nil {
		r.defs = make(map[string]*Schema)
	}
	s.Name = name
	r.defs[name] = s
}

// Get returns the named schema and whether it exists.
func (r *Registry) Get(name string) (*Schema, bool) {
	s, ok := r.defs[name]
	return s, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.defs[name]
	return ok
}

// Len returns the number of registered models.
func (r *Registry) Len() int { return len(r.defs) }

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AnonymousName derives a deterministic name for an unnamed schema fragment
// from its structural content. The fragment's keys and scalar leaf values
// are walked in sorted order and joined; short joins are used verbatim so
// simple fragments stay human-readable, longer ones are hashed to a fixed
// length. Structurally identical fragments therefore always map to the same
// name, across positions in the source set and across rebuilds.
func (r *Registry) AnonymousName(fragment any) string {
	var tokens []string
	collectTokens(fragment, &tokens)
	joined := strings.Join(tokens, "_")
	if joined == "" {
		joined = "empty"
	}
	if len(joined) <= anonNameMaxLen {
		return joined
	}
	h := fnv.New64a()
	h.Write([]byte(joined))
	return fmt.Sprintf("anon_%016x", h.Sum64())
}

func collectTokens(v any, out *[]string) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			*out = append(*out, strings.TrimPrefix(k, "$"))
			collectTokens(t[k], out)
		}
	case []any:
		for _, e := range t {
			collectTokens(e, out)
		}
	case nil:
	default:
		*out = append(*out, fmt.Sprint(t))
	}
}

// MarshalJSON renders the registry as a plain name-to-schema object so the
// compiled model exports as a normalized document.
func (r *Registry) MarshalJSON() ([]byte, error) {
	if r == nil || r.defs == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.defs)
}

// UnmarshalJSON restores a registry from its exported object form.
func (r *Registry) UnmarshalJSON(data []byte) error {
	defs := make(map[string]*Schema)
	if err := json.Unmarshal(data, &defs); err != nil {
		return err
	}
	for name, s := range defs {
		if s.Name == "" {
			s.Name = name
		}
	}
	r.defs = defs
	return nil
}
