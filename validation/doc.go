// Package validation provides input validation for configuration and
// provider options.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection.
//
// # Struct Tag Validation
//
//	type veroOptions struct {
//	    APIKey string `mapstructure:"apiKey" validate:"required"`
//	}
//	err := validation.Validate(opts)
//
// # Programmatic Validation
//
//	err := validation.New().
//	    Required("user_id", userID).
//	    Required("email", email).
//	    Validate()
package validation
