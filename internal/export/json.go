// Package export renders a compiled service model as outward documents: the
// normalized JSON form (round-trip safe), an OpenAPI 3 document, or a Go
// source literal for embedding.
package export

import (
	"encoding/json"
	"fmt"

	"github.com/svclabs/swaggersvc/internal/model"
)

// JSON marshals the compiled model into its normalized document form.
func JSON(sm *model.ServiceModel) ([]byte, error) {
	return json.MarshalIndent(sm, "", "  ")
}

// FromJSON restores a service model from its normalized document form.
// Exporting and re-importing is idempotent: the restored model describes
// the same operations, URLs and parameter shapes.
func FromJSON(data []byte) (*model.ServiceModel, error) {
	var sm model.ServiceModel
	if err := json.Unmarshal(data, &sm); err != nil {
		return nil, fmt.Errorf("export: parse service model: %w", err)
	}
	if sm.Models == nil {
		sm.Models = model.NewRegistry()
	}
	if sm.Operations == nil {
		sm.Operations = make(map[string]*model.Operation)
	}
	for name, op := range sm.Operations {
		if op.Name == "" {
			op.Name = name
		}
	}
	return &sm, nil
}
