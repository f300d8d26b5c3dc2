package model

import "strings"

// typeAliases maps source type tokens onto the canonical kinds.
var typeAliases = map[string]Kind{
	"string":  String,
	"str":     String,
	"byte":    String,
	"text":    String,
	"int":     Integer,
	"int32":   Integer,
	"int64":   Integer,
	"integer": Integer,
	"long":    Integer,
	"short":   Integer,
	"float":   Number,
	"double":  Number,
	"number":  Number,
	"bool":    Boolean,
	"boolean": Boolean,
	"date":    Date,
	"object":  Object,
	"struct":  Object,
	"array":   Array,
	"list":    Array,
}

// formatOverrides maps format hints that disambiguate the base type. A
// recognized format wins over the declared type.
var formatOverrides = map[string]Kind{
	"date":      Date,
	"date-time": Date,
	"datetime":  Date,
	"int32":     Integer,
	"int64":     Integer,
	"float":     Number,
	"double":    Number,
}

// CanonicalOf normalizes a source type token and format hint into a
// canonical kind. It never fails: an absent type defaults to String (callers
// with a structural hint pass "object" themselves), and an unrecognized
// token passes through unchanged so downstream stages can treat it as an
// extension point.
func CanonicalOf(sourceType, format string) Kind {
	if f, ok := formatOverrides[strings.ToLower(strings.TrimSpace(format))]; ok {
		return f
	}
	sourceType = strings.TrimSpace(sourceType)
	if sourceType == "" {
		return String
	}
	if k, ok := typeAliases[strings.ToLower(sourceType)]; ok {
		return k
	}
	return Kind(sourceType)
}
