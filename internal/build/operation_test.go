package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svclabs/swaggersvc/internal/descr"
	"github.com/svclabs/swaggersvc/internal/model"
)

func TestSynthesizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{"GET", "/pets", "get_pets"},
		{"GET", "/pets/{id}", "get_pets_id"},
		{"POST", "/pets/{petId}/toys", "post_pets_petId_toys"},
		{"DELETE", "/", "delete"},
		{"get", "pets", "get_pets"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, synthesizeName(tc.method, tc.path))
	}
}

func TestRelativize(t *testing.T) {
	t.Parallel()

	base := "http://petstore.example.com/api"
	assert.Equal(t, "/pets/{id}", relativize("http://petstore.example.com/pets/{id}", base))
	assert.Equal(t, "https://other.example.com/pets", relativize("https://other.example.com/pets", base))
	assert.Equal(t, "/", relativize("http://petstore.example.com", base))
}

func TestBuildOperationPathParameterForcedRequired(t *testing.T) {
	t.Parallel()

	tr := newTransformer()
	op, err := buildOperation(tr, descr.Operation{
		Method: "GET",
		Parameters: []map[string]any{
			{"name": "id", "paramType": "path", "type": "string"},
		},
	}, "/pets/{id}", "http://petstore.example.com/api")
	require.NoError(t, err)

	assert.Equal(t, "get_pets_id", op.Name)
	assert.Equal(t, "GET", op.Method)
	assert.Equal(t, "/pets/{id}", op.URI)

	id := op.Parameter("id")
	require.NotNil(t, id)
	assert.Equal(t, model.LocURI, id.Location)
	assert.True(t, id.Required, "path parameters are never optional")
}

func TestBuildOperationQueryParameterDefaults(t *testing.T) {
	t.Parallel()

	tr := newTransformer()
	op, err := buildOperation(tr, descr.Operation{
		Method: "GET",
		Parameters: []map[string]any{
			{"name": "limit", "type": "integer"},
		},
	}, "/pets", "http://petstore.example.com")
	require.NoError(t, err)

	limit := op.Parameter("limit")
	require.NotNil(t, limit)
	assert.Equal(t, model.LocQuery, limit.Location)
	assert.False(t, limit.Required)
}

func TestBuildOperationResponseContracts(t *testing.T) {
	t.Parallel()

	tr := newTransformer()
	tr.registry.Register("Pet", &model.Schema{Kind: model.Object})

	// No declared type at all: raw passthrough.
	op, err := buildOperation(tr, descr.Operation{Method: "GET"}, "/ping", "")
	require.NoError(t, err)
	assert.Equal(t, model.ContractNone, op.Response.Kind)

	// void is the format's explicit spelling of the same thing.
	op, err = buildOperation(tr, descr.Operation{Method: "DELETE", Type: "void"}, "/pets/{id}", "")
	require.NoError(t, err)
	assert.Equal(t, model.ContractNone, op.Response.Kind)

	// A primitive response type decodes and validates.
	op, err = buildOperation(tr, descr.Operation{Method: "GET", Nickname: "count", Type: "integer"}, "/count", "")
	require.NoError(t, err)
	assert.Equal(t, model.ContractModel, op.Response.Kind)
	assert.Equal(t, model.Integer, op.Response.Schema.Kind)

	// A registered model name becomes a reference contract.
	op, err = buildOperation(tr, descr.Operation{Method: "GET", Nickname: "getPet", Type: "Pet"}, "/pets/{id}", "")
	require.NoError(t, err)
	assert.Equal(t, model.ContractModel, op.Response.Kind)
	assert.Equal(t, "Pet", op.Response.Schema.Ref)

	// An array of references keeps the item contract so elements validate.
	op, err = buildOperation(tr, descr.Operation{
		Method: "GET", Nickname: "listPets", Type: "array",
		Items: map[string]any{"$ref": "Pet"},
	}, "/pets", "")
	require.NoError(t, err)
	assert.Equal(t, model.ContractModel, op.Response.Kind)
	assert.Equal(t, model.Array, op.Response.Schema.Kind)
	assert.Equal(t, "Pet", op.Response.Schema.Items.Ref)

	// An unknown token is a class contract; the builder checks it against
	// the decoder table at finalization.
	op, err = buildOperation(tr, descr.Operation{Method: "GET", Nickname: "special", Type: "SpecialResult"}, "/special", "")
	require.NoError(t, err)
	assert.Equal(t, model.ContractClass, op.Response.Kind)
	assert.Equal(t, "SpecialResult", op.Response.Class)
}

func TestBuildOperationErrorResponses(t *testing.T) {
	t.Parallel()

	tr := newTransformer()
	op, err := buildOperation(tr, descr.Operation{
		Method: "GET",
		ResponseMessages: []descr.ResponseMessage{
			{Code: 404, Message: "pet not found"},
			{Code: 400, Message: "invalid id"},
		},
	}, "/pets/{id}", "")
	require.NoError(t, err)

	require.Len(t, op.Errors, 2)
	assert.Equal(t, model.ErrorResponse{Code: 404, Phrase: "pet not found"}, op.Errors[0])
	assert.Equal(t, model.ErrorResponse{Code: 400, Phrase: "invalid id"}, op.Errors[1])
}
