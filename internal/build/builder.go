// Package build compiles source description documents into an immutable
// service model: a registry of named data models plus a registry of callable
// operations, fully resolved.
package build

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/svclabs/swaggersvc/internal/descr"
	"github.com/svclabs/swaggersvc/internal/model"
	"github.com/svclabs/swaggersvc/internal/response"
)

// ErrSealed is returned when configuration is changed after the service
// model has been built.
var ErrSealed = errors.New("build: service model already built; configuration is frozen")

// Settings configures a ServiceBuilder.
type Settings struct {
	// BaseURL overrides the base path declared by the source documents.
	BaseURL string
	// Delay is the politeness pause between declaration fetches, forwarded
	// to the loader by Compile.
	Delay time.Duration
	// Logger receives build progress. Defaults to slog.Default().
	Logger *slog.Logger
	// Decoders is the capability table class contracts resolve against. It
	// is seeded with the builtin decoders.
	Decoders map[string]response.Decoder
	// Overrides maps operation names to forced response classes. See
	// ServiceBuilder.RegisterResponseClass.
	Overrides map[string]string
}

// Option mutates Settings.
type Option func(*Settings)

func WithBaseURL(u string) Option      { return func(s *Settings) { s.BaseURL = u } }
func WithDelay(d time.Duration) Option { return func(s *Settings) { s.Delay = d } }
func WithLogger(l *slog.Logger) Option { return func(s *Settings) { s.Logger = l } }

// WithDecoder registers a custom response decoder under the given
// identifier so class contracts referencing it survive build validation.
func WithDecoder(name string, d response.Decoder) Option {
	return func(s *Settings) { s.Decoders[name] = d }
}

// WithResponseClass registers a response-class override at configuration
// time, equivalent to calling RegisterResponseClass before Build.
func WithResponseClass(operation, class string) Option {
	return func(s *Settings) { s.Overrides[operation] = class }
}

// ServiceBuilder folds description documents into a service model. The
// build is explicitly two-phase: declarations and overrides are collected
// in any order, then Build applies overrides, verifies the result, and
// seals it. Building is single-threaded by design; declaration order is
// significant because later declarations may reference models registered by
// earlier ones.
type ServiceBuilder struct {
	settings  Settings
	name      string
	desc      string
	version   string
	baseURL   string
	registry  *model.Registry
	ops       map[string]*model.Operation
	overrides map[string]string
	sealed    bool
}

// NewServiceBuilder constructs a builder with the given options applied
// over defaults.
func NewServiceBuilder(opts ...Option) *ServiceBuilder {
	settings := Settings{Decoders: response.Builtins(), Overrides: make(map[string]string)}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.Logger == nil {
		settings.Logger = slog.Default()
	}
	return &ServiceBuilder{
		settings:  settings,
		baseURL:   settings.BaseURL,
		registry:  model.NewRegistry(),
		ops:       make(map[string]*model.Operation),
		overrides: settings.Overrides,
	}
}

// SetBaseURL overrides the service base URL. Calling it after Build is a
// usage error.
func (b *ServiceBuilder) SetBaseURL(u string) error {
	if b.sealed {
		return ErrSealed
	}
	b.settings.BaseURL = u
	b.baseURL = u
	return nil
}

// SetDelay sets the politeness delay between declaration fetches. Calling
// it after Build is a usage error.
func (b *ServiceBuilder) SetDelay(d time.Duration) error {
	if b.sealed {
		return ErrSealed
	}
	b.settings.Delay = d
	return nil
}

// RegisterResponseClass forces the named operation's response contract to
// the given decoder class. The override binds late: it may be registered
// before or after the operation's declaration is added, and it is applied
// when Build finalizes, replacing whatever contract was inferred.
func (b *ServiceBuilder) RegisterResponseClass(operation, class string) error {
	if b.sealed {
		return ErrSealed
	}
	b.overrides[operation] = class
	return nil
}

// AddListing folds the resource-listing document's metadata into the
// service under construction.
func (b *ServiceBuilder) AddListing(document string, l *descr.ResourceListing) error {
	if b.sealed {
		return ErrSealed
	}
	if l.Info != nil {
		if b.name == "" {
			b.name = strings.TrimSpace(l.Info.Title)
		}
		if b.desc == "" {
			b.desc = strings.TrimSpace(l.Info.Description)
		}
	}
	if b.version == "" {
		b.version = strings.TrimSpace(l.APIVersion)
	}
	if b.baseURL == "" {
		b.baseURL = strings.TrimSpace(l.BasePath)
	}
	b.settings.Logger.Debug("collected resource listing",
		slog.String("document", document),
		slog.Int("declarations", len(l.APIs)))
	return nil
}

// AddDeclaration folds one declaration document into the service under
// construction: its models first, in sorted order for determinism, then its
// operations. An operation whose resolved name is already taken aborts the
// build with a name collision.
func (b *ServiceBuilder) AddDeclaration(document string, d *descr.Declaration) error {
	if b.sealed {
		return ErrSealed
	}
	if b.baseURL == "" {
		b.baseURL = strings.TrimSpace(d.BasePath)
	}
	baseURL := b.baseURL
	if b.settings.BaseURL == "" && strings.TrimSpace(d.BasePath) != "" {
		baseURL = strings.TrimSpace(d.BasePath)
	}

	t := &transformer{registry: b.registry, document: document}

	names := make([]string, 0, len(d.Models))
	for name := range d.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	// Pre-register every declared name first so references between sibling
	// models resolve regardless of compile order.
	for _, name := range names {
		b.registry.Register(name, &model.Schema{Kind: model.Object})
	}
	for _, name := range names {
		s, err := t.transform(d.Models[name], model.LocJSON)
		if err != nil {
			return err
		}
		b.registry.Register(name, s)
	}

	for _, group := range d.APIs {
		for _, src := range group.Operations {
			op, err := buildOperation(t, src, group.Path, baseURL)
			if err != nil {
				return err
			}
			if existing, ok := b.ops[op.Name]; ok {
				return &model.BuildError{
					Code:     model.NameCollision,
					Message:  fmt.Sprintf("%s: operations %s %s and %s %s both resolve to name %q", document, existing.Method, existing.URI, op.Method, op.URI, op.Name),
					Document: document,
					Name:     op.Name,
				}
			}
			b.ops[op.Name] = op
		}
	}
	b.settings.Logger.Debug("collected declaration",
		slog.String("document", document),
		slog.Int("models", len(d.Models)),
		slog.Int("groups", len(d.APIs)))
	return nil
}

// Build applies the collected overrides, verifies every class contract
// against the decoder table and every model reference against the registry,
// and seals the result. The returned model is immutable and safe for
// concurrent readers.
func (b *ServiceBuilder) Build() (*model.ServiceModel, error) {
	if b.sealed {
		return nil, ErrSealed
	}

	for opName, class := range b.overrides {
		op, ok := b.ops[opName]
		if !ok {
			return nil, &model.BuildError{
				Code:    model.UnregisteredClass,
				Message: fmt.Sprintf("response class override %q references unknown operation %q", class, opName),
				Name:    opName,
			}
		}
		// The inferred schema rides along so a decoder exposing a model
		// view can still be validated against it.
		op.Response = model.ResponseContract{
			Kind:   model.ContractClass,
			Class:  class,
			Schema: op.Response.Schema,
		}
	}

	for _, op := range b.ops {
		if op.Response.Kind != model.ContractClass {
			continue
		}
		if _, ok := b.settings.Decoders[op.Response.Class]; !ok {
			return nil, &model.BuildError{
				Code:    model.UnregisteredClass,
				Message: fmt.Sprintf("operation %s: response class %q has no registered decoder", op.Name, op.Response.Class),
				Name:    op.Name,
			}
		}
	}

	if err := b.verifyReferences(); err != nil {
		return nil, err
	}

	b.sealed = true
	svc := &model.ServiceModel{
		Name:        b.name,
		Description: b.desc,
		APIVersion:  b.version,
		BaseURL:     model.MergeURL("", b.baseURL),
		Models:      b.registry,
		Operations:  b.ops,
	}
	b.settings.Logger.Info("service model built",
		slog.String("service", svc.Name),
		slog.Int("models", b.registry.Len()),
		slog.Int("operations", len(b.ops)))
	return svc, nil
}

// verifyReferences walks every compiled schema and rejects any by-name
// reference with no registry entry, so the sealed model contains no
// dangling references.
func (b *ServiceBuilder) verifyReferences() error {
	check := func(s *model.Schema, where string) error {
		var walk func(s *model.Schema) error
		walk = func(s *model.Schema) error {
			if s == nil {
				return nil
			}
			if s.IsRef() {
				if !b.registry.Has(s.Ref) {
					return &model.BuildError{
						Code:    model.DanglingReference,
						Message: fmt.Sprintf("%s references unregistered model %q", where, s.Ref),
						Name:    s.Ref,
					}
				}
				return nil
			}
			for _, name := range sortedSchemaKeys(s.Properties) {
				if err := walk(s.Properties[name]); err != nil {
					return err
				}
			}
			return walk(s.Items)
		}
		return walk(s)
	}

	for _, name := range b.registry.Names() {
		s, _ := b.registry.Get(name)
		if err := check(s, fmt.Sprintf("model %s", name)); err != nil {
			return err
		}
	}
	opNames := make([]string, 0, len(b.ops))
	for name := range b.ops {
		opNames = append(opNames, name)
	}
	sort.Strings(opNames)
	for _, name := range opNames {
		op := b.ops[name]
		for _, p := range op.Parameters {
			if err := check(p, fmt.Sprintf("operation %s parameter %s", name, p.Name)); err != nil {
				return err
			}
		}
		if err := check(op.Response.Schema, fmt.Sprintf("operation %s response", name)); err != nil {
			return err
		}
	}
	return nil
}

func sortedSchemaKeys(m map[string]*model.Schema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
