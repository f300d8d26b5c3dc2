package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		srcType string
		format  string
		want    Kind
	}{
		{"plain string", "string", "", String},
		{"integer width alias", "int64", "", Integer},
		{"long alias", "long", "", Integer},
		{"double alias", "double", "", Number},
		{"bool alias", "bool", "", Boolean},
		{"case insensitive", "Integer", "", Integer},
		{"array alias", "list", "", Array},
		{"absent type defaults to string", "", "", String},
		{"date format wins over base type", "string", "date", Date},
		{"date-time format wins", "integer", "date-time", Date},
		{"int64 format disambiguates", "number", "int64", Integer},
		{"unknown token passes through", "Pet", "", Kind("Pet")},
		{"unknown format ignored", "string", "uuid", String},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanonicalOf(tc.srcType, tc.format))
		})
	}
}

func TestKindPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, Integer.Primitive())
	assert.False(t, Object.Primitive())
	assert.True(t, Object.Canonical())
	assert.True(t, Array.Canonical())
	assert.False(t, Kind("Pet").Canonical())
}
