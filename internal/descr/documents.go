// Package descr holds the source description format: the resource-listing
// and declaration documents of a version 1.2 API description, plus the
// loader that fetches them. Schema fragments stay loosely typed
// (map[string]any) because the transformation engine consumes them field by
// field.
package descr

// ResourceListing is the top-level index document: global metadata plus the
// paths of the per-resource declaration documents.
type ResourceListing struct {
	SwaggerVersion string        `yaml:"swaggerVersion"`
	APIVersion     string        `yaml:"apiVersion"`
	BasePath       string        `yaml:"basePath"`
	APIs           []ResourceRef `yaml:"apis"`
	Info           *Info         `yaml:"info"`
}

// ResourceRef points at one declaration document.
type ResourceRef struct {
	Path        string `yaml:"path"`
	Description string `yaml:"description"`
}

// Info is the listing's human-readable info block.
type Info struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Declaration is one per-resource document: model definitions plus API
// groups of operations.
type Declaration struct {
	SwaggerVersion string                    `yaml:"swaggerVersion"`
	APIVersion     string                    `yaml:"apiVersion"`
	BasePath       string                    `yaml:"basePath"`
	ResourcePath   string                    `yaml:"resourcePath"`
	APIs           []APIGroup                `yaml:"apis"`
	Models         map[string]map[string]any `yaml:"models"`
}

// APIGroup couples one path with the operations served under it.
type APIGroup struct {
	Path        string      `yaml:"path"`
	Description string      `yaml:"description"`
	Operations  []Operation `yaml:"operations"`
}

// Operation is one source operation declaration. Parameters and Items stay
// loose: they are schema fragments.
type Operation struct {
	Method           string            `yaml:"method"`
	Nickname         string            `yaml:"nickname"`
	Summary          string            `yaml:"summary"`
	Notes            string            `yaml:"notes"`
	Type             string            `yaml:"type"`
	Format           string            `yaml:"format"`
	Items            map[string]any    `yaml:"items"`
	Parameters       []map[string]any  `yaml:"parameters"`
	ResponseMessages []ResponseMessage `yaml:"responseMessages"`
}

// ResponseMessage is one declared error outcome.
type ResponseMessage struct {
	Code    int    `yaml:"code"`
	Message string `yaml:"message"`
}
