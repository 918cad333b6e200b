package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report dotted paths using the document's own yaml keys rather than
	// Go field names, so a validation failure reads like "build.platform"
	// instead of "Configuration.Build.Platform" — the "dotted path of the
	// first failing key" the spec's validation policy calls for.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate runs struct-tag validation over cfg and, on the first failing
// rule, returns an error naming its dotted path — required by §4.1's
// "every missing required key is fatal and produces a single ConfigError
// with the dotted path of the first failing key".
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok || len(verrs) == 0 {
			return err
		}
		first := verrs[0]
		path := dottedPath(first.Namespace())
		return fmt.Errorf("%s: %s", path, first.Tag())
	}
	return validatePlatform(cfg)
}

// dottedPath strips the leading "Config." root segment validator.v10
// prepends to every Namespace(), then the top-level "configuration." key,
// and lowercases nothing further, since RegisterTagNameFunc already
// rendered each segment as its yaml key.
func dottedPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 0 {
		parts = parts[1:]
	}
	if len(parts) > 1 && parts[0] == "configuration" {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}

// validatePlatform enforces that build.platform is in "name:stream" form,
// a rule validator's struct tags can't express directly against a bare
// string field.
func validatePlatform(cfg *Config) error {
	if !strings.Contains(cfg.Configuration.Build.Platform, ":") {
		return fmt.Errorf("build.platform: must be in name:stream form")
	}
	return nil
}
