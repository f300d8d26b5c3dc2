package response

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"sort"

	"github.com/svclabs/swaggersvc/internal/model"
)

// Handler drives the per-response pipeline: select a decode strategy from
// the operation's contract, decode, validate. A Handler holds no mutable
// state across invocations; one instance serves concurrent responses.
type Handler struct {
	svc      *model.ServiceModel
	decoders map[string]Decoder
	logger   *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithDecoder registers a custom decoder under the given identifier,
// shadowing a builtin of the same name.
func WithDecoder(name string, d Decoder) HandlerOption {
	return func(h *Handler) { h.decoders[name] = d }
}

// WithHandlerLogger routes validation failures to the given logger.
func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

// NewHandler builds a Handler over a compiled service model. The decoder
// table starts from Builtins().
func NewHandler(svc *model.ServiceModel, opts ...HandlerOption) *Handler {
	h := &Handler{svc: svc, decoders: Builtins()}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Process decodes and validates raw against the named operation's response
// contract. A contract of kind none returns raw untouched. A validation
// failure returns a *ValidationError carrying every violation found; the
// decoded-but-invalid value is never returned.
func (h *Handler) Process(opName string, raw *Raw) (any, error) {
	op := h.svc.Operation(opName)
	if op == nil {
		return nil, &ConfigError{Operation: opName, Message: fmt.Sprintf("unknown operation %q", opName)}
	}

	switch op.Response.Kind {
	case model.ContractNone:
		return raw, nil

	case model.ContractClass:
		dec, ok := h.decoders[op.Response.Class]
		if !ok {
			// Missing decoders denote a build defect, not a request failure.
			return nil, &ConfigError{Operation: op.Name,
				Message: fmt.Sprintf("operation %s: no decoder registered for class %q", op.Name, op.Response.Class)}
		}
		v, err := dec.DecodeResponse(op, raw)
		if err != nil {
			return nil, err
		}
		if mv, ok := v.(ModelView); ok && op.Response.Schema != nil {
			if err := h.validate(op, mv.ModelView()); err != nil {
				return nil, err
			}
		}
		return v, nil

	case model.ContractModel:
		v, decoded, err := h.decode(op, raw)
		if err != nil {
			return nil, err
		}
		if decoded {
			if err := h.validate(op, v); err != nil {
				return nil, err
			}
		}
		return v, nil

	default:
		return nil, &ConfigError{Operation: op.Name,
			Message: fmt.Sprintf("operation %s: unknown response contract kind %q", op.Name, op.Response.Kind)}
	}
}

// decode produces a concrete value from body and headers according to the
// contract schema's property locations. The second return is false when the
// response carried nothing to decode, in which case validation is skipped.
func (h *Handler) decode(op *model.Operation, raw *Raw) (any, bool, error) {
	schema := h.resolve(op.Response.Schema)

	var body any
	if len(raw.Body) > 0 {
		if err := json.Unmarshal(raw.Body, &body); err != nil {
			return nil, false, &ValidationError{Operation: op.Name, Violations: []Violation{
				{Path: "", Message: fmt.Sprintf("body is not valid JSON: %v", err)},
			}}
		}
	}

	if schema == nil || schema.Kind != model.Object {
		return body, body != nil, nil
	}

	out, _ := body.(map[string]any)
	if out == nil {
		if body != nil {
			// Non-object body against an object schema: let validation say so.
			return body, true, nil
		}
		out = make(map[string]any)
	}
	for name, prop := range schema.Properties {
		if prop.Location != model.LocHeader {
			continue
		}
		if v := raw.Header.Get(name); v != "" {
			out[name] = v
		}
	}
	return out, true, nil
}

func (h *Handler) validate(op *model.Operation, v any) error {
	var violations []Violation
	h.check(op.Response.Schema, v, "", &violations)
	if len(violations) == 0 {
		return nil
	}
	h.logger.Debug("response validation failed",
		slog.String("operation", op.Name),
		slog.Int("violations", len(violations)))
	return &ValidationError{Operation: op.Name, Violations: violations}
}

// resolve follows by-name references into the model registry.
func (h *Handler) resolve(s *model.Schema) *model.Schema {
	for s.IsRef() {
		next, ok := h.svc.Models.Get(s.Ref)
		if !ok {
			return nil
		}
		s = next
	}
	return s
}

// check recursively validates v against s, appending every violation found.
func (h *Handler) check(s *model.Schema, v any, path string, out *[]Violation) {
	if s == nil {
		return
	}
	if s.IsRef() {
		resolved := h.resolve(s)
		if resolved == nil {
			*out = append(*out, Violation{Path: path, Message: fmt.Sprintf("unresolved model reference %q", s.Ref)})
			return
		}
		s = resolved
	}

	if len(s.Enum) > 0 && !enumContains(s.Enum, v) {
		*out = append(*out, Violation{Path: path, Message: fmt.Sprintf("value %v is not one of the allowed values", v)})
	}

	switch s.Kind {
	case model.Object:
		m, ok := v.(map[string]any)
		if !ok {
			*out = append(*out, Violation{Path: path, Message: kindMismatch(model.Object, v)})
			return
		}
		for _, name := range sortedKeys(s.Properties) {
			prop := s.Properties[name]
			pv, present := m[name]
			if !present {
				if prop.Required {
					*out = append(*out, Violation{Path: join(path, name), Message: "required property is missing"})
				}
				continue
			}
			h.check(prop, pv, join(path, name), out)
		}
		if s.HasProperties && !s.AdditionalProperties {
			for _, key := range sortedAnyKeys(m) {
				if _, declared := s.Properties[key]; !declared {
					*out = append(*out, Violation{Path: join(path, key), Message: "property is not declared by the model"})
				}
			}
		}

	case model.Array:
		arr, ok := v.([]any)
		if !ok {
			*out = append(*out, Violation{Path: path, Message: kindMismatch(model.Array, v)})
			return
		}
		if s.Items != nil {
			for i, e := range arr {
				h.check(s.Items, e, fmt.Sprintf("%s[%d]", path, i), out)
			}
		}

	case model.String, model.Date:
		if _, ok := v.(string); !ok {
			*out = append(*out, Violation{Path: path, Message: kindMismatch(s.Kind, v)})
		}

	case model.Boolean:
		if _, ok := v.(bool); !ok {
			*out = append(*out, Violation{Path: path, Message: kindMismatch(s.Kind, v)})
		}

	case model.Integer:
		f, ok := v.(float64)
		if !ok || math.Trunc(f) != f {
			*out = append(*out, Violation{Path: path, Message: kindMismatch(s.Kind, v)})
		}

	case model.Number:
		if _, ok := v.(float64); !ok {
			*out = append(*out, Violation{Path: path, Message: kindMismatch(s.Kind, v)})
		}

	default:
		// Non-canonical kinds are extension points; accept them.
	}
}

func enumContains(enum []any, v any) bool {
	for _, e := range enum {
		if enumEqual(e, v) {
			return true
		}
	}
	return false
}

// enumEqual compares an allowed value against a decoded one. Numbers
// compare across their source representations (source documents may carry
// ints where decoded JSON carries float64); everything else must match in
// type as well as value, so "1" never matches 1.
func enumEqual(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok || bok {
		return aok && bok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func kindMismatch(want model.Kind, got any) string {
	if got == nil {
		return fmt.Sprintf("expected %s, got null", want)
	}
	return fmt.Sprintf("expected %s, got %T", want, got)
}

// Violations report in key order so failures read deterministically.
func sortedKeys(m map[string]*model.Schema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedAnyKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
