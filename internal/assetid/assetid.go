// Package assetid derives the composite asset identifier from the nine
// descriptive fields of a record.
//
// Each field is trimmed, internal whitespace runs are collapsed to a single
// space, and underscores are replaced with hyphens so that the underscore is
// only ever the field separator. The nine cleaned fields are joined with "_".
package assetid

import (
	"strings"

	"powder-inventory/internal/models"
)

// Separator joins cleaned fields inside an identifier.
const Separator = "_"

// Normalize cleans a single field value.
func Normalize(s string) string {
	return strings.ReplaceAll(strings.Join(strings.Fields(s), " "), Separator, "-")
}

// Derive computes the identifier for f. It never fails; nine empty fields
// produce eight separators.
func Derive(f models.Fields) string {
	values := f.Values()
	cleaned := make([]string, len(values))
	for i, v := range values {
		cleaned[i] = Normalize(v)
	}
	return strings.Join(cleaned, Separator)
}

// NormalizeFields applies Normalize to each field of f.
func NormalizeFields(f models.Fields) models.Fields {
	values := f.Values()
	for i, v := range values {
		values[i] = Normalize(v)
	}
	return models.FieldsFromValues(values)
}

// Split breaks an identifier back into its nine cleaned parts. ok is false
// when id does not contain exactly nine parts.
func Split(id string) (parts []string, ok bool) {
	parts = strings.Split(id, Separator)
	return parts, len(parts) == models.FieldCount
}
