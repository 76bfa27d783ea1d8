// Package validation provides input validation for blobkit configuration
// and request payloads.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Both return *errors.AppError
// with code INVALID_INPUT and a "fields" detail.
//
// # Struct Tag Validation
//
//	type Config struct {
//	    DefaultContainer string `mapstructure:"default_container" validate:"omitempty,container_name"`
//	    DefaultAccess    string `mapstructure:"default_access" validate:"oneof=private public-read"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New().ObjectKey("key", key).ContainerName("container", name)
//	if appErr := v.Validate(); appErr != nil { ... }
package validation
