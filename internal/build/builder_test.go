package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svclabs/swaggersvc/internal/descr"
	"github.com/svclabs/swaggersvc/internal/model"
	"github.com/svclabs/swaggersvc/internal/response"
)

func petListing() *descr.ResourceListing {
	return &descr.ResourceListing{
		SwaggerVersion: "1.2",
		APIVersion:     "1.0.0",
		Info:           &descr.Info{Title: "Petstore", Description: "A sample pet service"},
		APIs:           []descr.ResourceRef{{Path: "/pets"}},
	}
}

func petDeclaration() *descr.Declaration {
	return &descr.Declaration{
		SwaggerVersion: "1.2",
		BasePath:       "http://petstore.example.com/api",
		ResourcePath:   "/pets",
		Models: map[string]map[string]any{
			"Pet": {
				"id":   "Pet",
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{"type": "string"},
					"age":  map[string]any{"type": "integer"},
				},
				"required": []any{"name"},
			},
		},
		APIs: []descr.APIGroup{
			{
				Path: "/pets",
				Operations: []descr.Operation{
					{Method: "GET", Type: "array", Items: map[string]any{"$ref": "Pet"}},
					{Method: "POST", Nickname: "createPet", Type: "Pet",
						Parameters: []map[string]any{
							{"name": "body", "paramType": "body", "type": "Pet", "required": true},
						}},
				},
			},
			{
				Path: "/pets/{id}",
				Operations: []descr.Operation{
					{Method: "GET", Type: "Pet",
						Parameters: []map[string]any{
							{"name": "id", "paramType": "path", "type": "string"},
						},
						ResponseMessages: []descr.ResponseMessage{{Code: 404, Message: "pet not found"}}},
				},
			},
		},
	}
}

func buildPetService(t *testing.T, opts ...Option) *model.ServiceModel {
	t.Helper()
	b := NewServiceBuilder(opts...)
	require.NoError(t, b.AddListing("listing.json", petListing()))
	require.NoError(t, b.AddDeclaration("pets.json", petDeclaration()))
	svc, err := b.Build()
	require.NoError(t, err)
	return svc
}

func TestBuildPetService(t *testing.T) {
	t.Parallel()

	svc := buildPetService(t)

	assert.Equal(t, "Petstore", svc.Name)
	assert.Equal(t, "1.0.0", svc.APIVersion)
	assert.Equal(t, "http://petstore.example.com/api", svc.BaseURL)

	pet, ok := svc.Models.Get("Pet")
	require.True(t, ok)
	assert.True(t, pet.Properties["name"].Required)
	assert.False(t, pet.AdditionalProperties)

	require.Len(t, svc.Operations, 3)
	get := svc.Operation("get_pets_id")
	require.NotNil(t, get, "nickname-less operations synthesize method_path names")
	assert.Equal(t, "/pets/{id}", get.URI, "templates under the service base stay relative")
	assert.Equal(t, model.LocURI, get.Parameter("id").Location)
	assert.True(t, get.Parameter("id").Required)
	assert.Equal(t, []model.ErrorResponse{{Code: 404, Phrase: "pet not found"}}, get.Errors)

	list := svc.Operation("get_pets")
	require.NotNil(t, list)
	assert.Equal(t, model.ContractModel, list.Response.Kind)
	assert.Equal(t, "Pet", list.Response.Schema.Items.Ref)
}

func TestBuildNameCollisionIsFatal(t *testing.T) {
	t.Parallel()

	d := &descr.Declaration{
		SwaggerVersion: "1.2",
		APIs: []descr.APIGroup{
			{Path: "/pets", Operations: []descr.Operation{{Method: "GET"}}},
			{Path: "/pets/", Operations: []descr.Operation{{Method: "GET"}}},
		},
	}
	b := NewServiceBuilder()
	err := b.AddDeclaration("pets.json", d)
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.NameCollision))
}

func TestBuildLateBindingOverride(t *testing.T) {
	t.Parallel()

	b := NewServiceBuilder()
	require.NoError(t, b.AddListing("listing.json", petListing()))
	require.NoError(t, b.AddDeclaration("pets.json", petDeclaration()))

	// Registered after the operation was collected: still binds.
	require.NoError(t, b.RegisterResponseClass("get_pets_id", "json"))

	svc, err := b.Build()
	require.NoError(t, err)

	get := svc.Operation("get_pets_id")
	assert.Equal(t, model.ContractClass, get.Response.Kind)
	assert.Equal(t, "json", get.Response.Class)
	require.NotNil(t, get.Response.Schema, "the inferred schema survives the override")
	assert.Equal(t, "Pet", get.Response.Schema.Ref)
}

func TestBuildOverrideBeforeDeclaration(t *testing.T) {
	t.Parallel()

	svc := buildPetService(t, WithResponseClass("createPet", "raw"))
	created := svc.Operation("createPet")
	assert.Equal(t, model.ContractClass, created.Response.Kind)
	assert.Equal(t, "raw", created.Response.Class)
}

func TestBuildUnregisteredClassIsFatal(t *testing.T) {
	t.Parallel()

	b := NewServiceBuilder()
	require.NoError(t, b.AddDeclaration("pets.json", petDeclaration()))
	require.NoError(t, b.RegisterResponseClass("createPet", "NoSuchDecoder"))
	_, err := b.Build()
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.UnregisteredClass))
}

func TestBuildCustomDecoderSatisfiesClassContract(t *testing.T) {
	t.Parallel()

	dec := response.DecoderFunc(func(_ *model.Operation, raw *response.Raw) (any, error) {
		return raw, nil
	})
	b := NewServiceBuilder(WithDecoder("NoSuchDecoder", dec))
	require.NoError(t, b.AddDeclaration("pets.json", petDeclaration()))
	require.NoError(t, b.RegisterResponseClass("createPet", "NoSuchDecoder"))
	_, err := b.Build()
	require.NoError(t, err)
}

func TestBuildOverrideForUnknownOperationIsFatal(t *testing.T) {
	t.Parallel()

	b := NewServiceBuilder()
	require.NoError(t, b.AddDeclaration("pets.json", petDeclaration()))
	require.NoError(t, b.RegisterResponseClass("no_such_operation", "json"))
	_, err := b.Build()
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.UnregisteredClass))
}

func TestBuildSealsConfiguration(t *testing.T) {
	t.Parallel()

	b := NewServiceBuilder()
	require.NoError(t, b.AddDeclaration("pets.json", petDeclaration()))
	_, err := b.Build()
	require.NoError(t, err)

	assert.ErrorIs(t, b.SetBaseURL("http://elsewhere.example.com"), ErrSealed)
	assert.ErrorIs(t, b.SetDelay(0), ErrSealed)
	assert.ErrorIs(t, b.RegisterResponseClass("get_pets", "json"), ErrSealed)
	assert.ErrorIs(t, b.AddDeclaration("again.json", petDeclaration()), ErrSealed)
	_, err = b.Build()
	assert.ErrorIs(t, err, ErrSealed)
}

func TestBuildSiblingModelReferences(t *testing.T) {
	t.Parallel()

	// Pet sorts before Tag yet references it; declaration order inside one
	// document must not matter.
	d := &descr.Declaration{
		SwaggerVersion: "1.2",
		Models: map[string]map[string]any{
			"Pet": {
				"type": "object",
				"properties": map[string]any{
					"tags": map[string]any{
						"type":  "array",
						"items": map[string]any{"$ref": "Tag"},
					},
				},
			},
			"Tag": {
				"type":       "object",
				"properties": map[string]any{"label": map[string]any{"type": "string"}},
			},
		},
	}
	b := NewServiceBuilder()
	require.NoError(t, b.AddDeclaration("pets.json", d))
	svc, err := b.Build()
	require.NoError(t, err)

	pet, ok := svc.Models.Get("Pet")
	require.True(t, ok)
	assert.Equal(t, "Tag", pet.Properties["tags"].Items.Ref)
	tag, ok := svc.Models.Get("Tag")
	require.True(t, ok)
	assert.Equal(t, model.String, tag.Properties["label"].Kind)
}

func TestBuildDanglingPropertyReferenceCaughtAtFinalize(t *testing.T) {
	t.Parallel()

	d := &descr.Declaration{
		SwaggerVersion: "1.2",
		Models: map[string]map[string]any{
			"Owner": {
				"type": "object",
				"properties": map[string]any{
					"pet": map[string]any{"$ref": "Ghost"},
				},
			},
		},
	}
	b := NewServiceBuilder()
	require.NoError(t, b.AddDeclaration("owners.json", d))
	_, err := b.Build()
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.DanglingReference))
}

func TestBuildAnonymousModelsDeduplicateAcrossOperations(t *testing.T) {
	t.Parallel()

	point := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"latitude":  map[string]any{"type": "number"},
			"longitude": map[string]any{"type": "number"},
		},
	}
	d := &descr.Declaration{
		SwaggerVersion: "1.2",
		APIs: []descr.APIGroup{
			{Path: "/route", Operations: []descr.Operation{
				{Method: "GET", Nickname: "route", Type: "array", Items: point},
			}},
			{Path: "/stops", Operations: []descr.Operation{
				{Method: "GET", Nickname: "stops", Type: "array", Items: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"longitude": map[string]any{"type": "number"},
						"latitude":  map[string]any{"type": "number"},
					},
				}},
			}},
		},
	}
	b := NewServiceBuilder()
	require.NoError(t, b.AddDeclaration("geo.json", d))
	svc, err := b.Build()
	require.NoError(t, err)

	route := svc.Operation("route")
	stops := svc.Operation("stops")
	assert.Equal(t, route.Response.Schema.Items.Ref, stops.Response.Schema.Items.Ref,
		"structurally identical anonymous schemas collapse to one model")
	assert.Equal(t, 1, svc.Models.Len())
}

func TestBuildIsDeterministic(t *testing.T) {
	t.Parallel()

	first := buildPetService(t)
	second := buildPetService(t)
	assert.Equal(t, first.Models.Names(), second.Models.Names())
	for _, name := range first.Models.Names() {
		a, _ := first.Models.Get(name)
		b, _ := second.Models.Get(name)
		assert.Equal(t, a, b)
	}
}

func TestBuildBaseURLOverride(t *testing.T) {
	t.Parallel()

	svc := buildPetService(t, WithBaseURL("https://proxy.example.com/petstore"))
	assert.Equal(t, "https://proxy.example.com/petstore", svc.BaseURL)
}
