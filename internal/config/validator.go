// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `Load` calls `validateStruct` immediately after it unmarshals the merged
// Koanf tree into a `Config`.  Any validation error aborts startup, so the
// gate never runs with partial or malformed routing configuration.
//
// Field rules live in struct tags (see model.go).  Cross-section rules,
// such as "the db status source needs a DSN", are registered here as a
// struct-level validation.

package config

import "github.com/go-playground/validator/v10"

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterStructValidation(configLevel, Config{})
	return val
}

// configLevel enforces rules spanning more than one section.
func configLevel(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)
	if c.Status.Source == "db" && c.Database.DSN == "" {
		sl.ReportError(c.Database.DSN, "Database.DSN", "DSN", "required_for_db_source", "")
	}
}

//
// public API
//

// validateStruct returns the validation errors, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
