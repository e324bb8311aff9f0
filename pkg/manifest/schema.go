package manifest

import (
	"strings"

	"github.com/tidwall/gjson"

	pkgerrors "github.com/matzehuels/pkgrepo/pkg/errors"
)

// SchemaVersion is one of the four supported manifest schema generations.
// It is compared as a literal, never as a float.
type SchemaVersion string

const (
	SchemaV1_0 SchemaVersion = "1.0"
	SchemaV1_1 SchemaVersion = "1.1"
	SchemaV1_2 SchemaVersion = "1.2"
	SchemaV2_0 SchemaVersion = "2.0"
)

var supportedSchemas = map[SchemaVersion]bool{
	SchemaV1_0: true,
	SchemaV1_1: true,
	SchemaV1_2: true,
	SchemaV2_0: true,
}

// IsV2 reports whether v is the 2.0 schema, which delegates metadata to
// details URLs. Every other supported version is a 1.x schema.
func (v SchemaVersion) IsV2() bool { return v == SchemaV2_0 }

func (v SchemaVersion) String() string { return string(v) }

// ParseSchemaVersion reads schema_version from a JSON number or string.
// An integer is read with a ".0" suffix, so 2 is "2.0"; any other spelling
// outside the supported set (2.00, 3.0, "abc") is rejected.
func ParseSchemaVersion(r gjson.Result) (SchemaVersion, error) {
	var s string
	switch r.Type {
	case gjson.Number:
		s = strings.TrimSpace(r.Raw)
	case gjson.String:
		s = strings.TrimSpace(r.Str)
	default:
		if !r.Exists() {
			return "", pkgerrors.New(pkgerrors.ErrCodeInvalidSchemaVersion, `the "schema_version" JSON key is missing`)
		}
		return "", pkgerrors.New(pkgerrors.ErrCodeInvalidSchemaVersion, `the "schema_version" is not a valid number`)
	}

	if s != "" && !strings.Contains(s, ".") {
		s += ".0"
	}
	v := SchemaVersion(s)
	if !supportedSchemas[v] {
		return "", pkgerrors.New(pkgerrors.ErrCodeInvalidSchemaVersion,
			`the "schema_version" %q is not recognized, must be one of: 1.0, 1.1, 1.2 or 2.0`, s)
	}
	return v, nil
}
