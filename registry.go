package binform

import "github.com/puzpuzpuz/xsync/v4"

// schemaRegistry maps record type names to compiled schemas. A concurrent
// map lets schemas compiled by one goroutine be resolved from any other,
// which is how JSON descriptors reference nested record types.
var schemaRegistry = xsync.NewMap[string, *Schema]()

// RegisterSchema publishes a compiled schema under its name. Registering the
// same schema again is a no-op; a different schema under an existing name is
// an error.
func RegisterSchema(s *Schema) error {
	if s == nil || s.name == "" {
		return schemaErrf("", "", ErrBadConfig, "schema must be non-nil and named")
	}
	if prev, loaded := schemaRegistry.LoadOrStore(s.name, s); loaded && prev != s {
		return schemaErrf(s.name, "", ErrSchemaRegistered, "")
	}
	return nil
}

// LookupSchema resolves a previously registered schema by name.
func LookupSchema(name string) (*Schema, bool) {
	return schemaRegistry.Load(name)
}
