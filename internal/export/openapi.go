package export

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/svclabs/swaggersvc/internal/model"
)

// OpenAPI renders the compiled model as an OpenAPI 3 document. The mapping
// is lossy in one direction only: the normalized form carries nothing an
// OpenAPI document cannot express.
func OpenAPI(sm *model.ServiceModel) (*openapi3.T, error) {
	version := strings.TrimSpace(sm.APIVersion)
	if version == "" {
		version = "0.0.0"
	}
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       sm.Name,
			Version:     version,
			Description: sm.Description,
		},
		Paths:      openapi3.Paths{},
		Components: &openapi3.Components{Schemas: openapi3.Schemas{}},
	}
	if sm.BaseURL != "" {
		doc.Servers = openapi3.Servers{{URL: sm.BaseURL}}
	}

	if sm.Models != nil {
		for _, name := range sm.Models.Names() {
			s, _ := sm.Models.Get(name)
			doc.Components.Schemas[name] = toSchemaRef(s)
		}
	}

	opNames := make([]string, 0, len(sm.Operations))
	for name := range sm.Operations {
		opNames = append(opNames, name)
	}
	sort.Strings(opNames)
	for _, name := range opNames {
		op := sm.Operations[name]
		path := pathOf(op.URI)
		item := doc.Paths[path]
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths[path] = item
		}
		oasOp, err := toOperation(op)
		if err != nil {
			return nil, err
		}
		if err := setMethod(item, op.Method, oasOp); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

func toOperation(op *model.Operation) (*openapi3.Operation, error) {
	out := &openapi3.Operation{
		OperationID: op.Name,
		Summary:     op.Summary,
		Description: op.Description,
		Responses:   openapi3.Responses{},
	}

	var bodyProps []*model.Schema
	for _, p := range op.Parameters {
		switch p.Location {
		case model.LocURI:
			out.Parameters = append(out.Parameters, toParameter(p, "path"))
		case model.LocHeader:
			out.Parameters = append(out.Parameters, toParameter(p, "header"))
		case model.LocBody, model.LocJSON:
			bodyProps = append(bodyProps, p)
		default:
			out.Parameters = append(out.Parameters, toParameter(p, "query"))
		}
	}
	if len(bodyProps) == 1 && bodyProps[0].Location == model.LocBody {
		out.RequestBody = &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
			Required: bodyProps[0].Required,
			Content:  openapi3.NewContentWithJSONSchemaRef(toSchemaRef(bodyProps[0])),
		}}
	} else if len(bodyProps) > 0 {
		// Several structured parameters fold into one synthetic body object.
		body := &openapi3.Schema{Type: "object", Properties: openapi3.Schemas{}}
		for _, p := range bodyProps {
			body.Properties[p.Name] = toSchemaRef(p)
			if p.Required {
				body.Required = append(body.Required, p.Name)
			}
		}
		sort.Strings(body.Required)
		out.RequestBody = &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
			Content: openapi3.NewContentWithJSONSchemaRef(openapi3.NewSchemaRef("", body)),
		}}
	}

	switch op.Response.Kind {
	case model.ContractModel:
		desc := "success"
		out.Responses["200"] = &openapi3.ResponseRef{Value: &openapi3.Response{
			Description: &desc,
			Content:     openapi3.NewContentWithJSONSchemaRef(toSchemaRef(op.Response.Schema)),
		}}
	case model.ContractClass:
		desc := fmt.Sprintf("decoded by the %s decoder", op.Response.Class)
		out.Responses["200"] = &openapi3.ResponseRef{Value: &openapi3.Response{Description: &desc}}
	default:
		desc := "raw response"
		out.Responses["default"] = &openapi3.ResponseRef{Value: &openapi3.Response{Description: &desc}}
	}
	for _, e := range op.Errors {
		phrase := e.Phrase
		if phrase == "" {
			phrase = "error"
		}
		out.Responses[fmt.Sprint(e.Code)] = &openapi3.ResponseRef{Value: &openapi3.Response{Description: &phrase}}
	}

	return out, nil
}

func toParameter(p *model.Schema, in string) *openapi3.ParameterRef {
	schema := *p
	schema.Name = ""
	schema.Location = ""
	schema.Required = false
	return &openapi3.ParameterRef{Value: &openapi3.Parameter{
		Name:        p.Name,
		In:          in,
		Required:    p.Required,
		Description: p.Description,
		Schema:      toSchemaRef(&schema),
	}}
}

func toSchemaRef(s *model.Schema) *openapi3.SchemaRef {
	if s == nil {
		return openapi3.NewSchemaRef("", &openapi3.Schema{})
	}
	if s.IsRef() {
		return openapi3.NewSchemaRef("#/components/schemas/"+s.Ref, nil)
	}

	out := &openapi3.Schema{
		Description: s.Description,
		Default:     s.Default,
		Enum:        append([]any(nil), s.Enum...),
	}
	switch s.Kind {
	case model.String:
		out.Type = "string"
	case model.Date:
		out.Type = "string"
		out.Format = "date-time"
	case model.Integer:
		out.Type = "integer"
	case model.Number:
		out.Type = "number"
	case model.Boolean:
		out.Type = "boolean"
	case model.Array:
		out.Type = "array"
		if s.Items != nil {
			out.Items = toSchemaRef(s.Items)
		}
	case model.Object:
		out.Type = "object"
		out.Properties = openapi3.Schemas{}
		for name, prop := range s.Properties {
			out.Properties[name] = toSchemaRef(prop)
			if prop.Required {
				out.Required = append(out.Required, name)
			}
		}
		sort.Strings(out.Required)
		if s.HasProperties {
			open := s.AdditionalProperties
			out.AdditionalProperties = openapi3.AdditionalProperties{Has: &open}
		}
	default:
		// Non-canonical extension kinds have no OpenAPI equivalent; an
		// untyped schema is the closest honest mapping.
	}
	return openapi3.NewSchemaRef("", out)
}

func setMethod(item *openapi3.PathItem, method string, op *openapi3.Operation) error {
	switch strings.ToUpper(method) {
	case "GET":
		item.Get = op
	case "POST":
		item.Post = op
	case "PUT":
		item.Put = op
	case "DELETE":
		item.Delete = op
	case "PATCH":
		item.Patch = op
	case "HEAD":
		item.Head = op
	case "OPTIONS":
		item.Options = op
	default:
		return fmt.Errorf("export: unsupported HTTP method %q", method)
	}
	return nil
}

// pathOf reduces an operation URI to the path component an OpenAPI paths
// key expects.
func pathOf(uri string) string {
	if strings.HasPrefix(uri, "/") {
		return uri
	}
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		return u.Path
	}
	return "/" + uri
}
