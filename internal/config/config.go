// Package config implements DistroBaker's Config Model (C1, §4.1): a
// typed, validated representation of distrobaker.yaml, template expansion
// for per-component URLs, and an atomically swappable process-wide
// instance (§3, §9).
//
// The overall shape — typed struct, Validate() error, sane zero-value
// defaults — follows the teacher's internal/config package; the source
// (a YAML document fetched from a VCS repository rather than env/flags)
// does not fit viper, so this package decodes with gopkg.in/yaml.v3 and
// validates with go-playground/validator/v10 instead.
package config

// Config is the root, frozen-after-load configuration document (§3).
type Config struct {
	Configuration Configuration           `yaml:"configuration" validate:"required"`
	Components    map[string]NamespaceMap `yaml:"components"`
}

// Configuration holds every field under the top-level "configuration" key.
type Configuration struct {
	Source      Endpoint `yaml:"source" validate:"required"`
	Destination Endpoint `yaml:"destination" validate:"required"`
	Trigger     Trigger  `yaml:"trigger" validate:"required"`
	Build       Build    `yaml:"build" validate:"required"`
	Git         Git      `yaml:"git" validate:"required"`
	Control     Control  `yaml:"control"`
	Defaults    Defaults `yaml:"defaults" validate:"required"`
}

// Endpoint describes one side (source or destination) of the sync: its
// VCS base URL, its lookaside cache, and its build-system profile.
// MBS only applies to the destination; a source.mbs key is a warn-and-drop
// (§4.1 validation policy), never populated here.
type Endpoint struct {
	SCM     string      `yaml:"scm" validate:"required"`
	Cache   CacheConfig `yaml:"cache" validate:"required"`
	Profile string      `yaml:"profile" validate:"required"`
	MBS     *MBSConfig  `yaml:"mbs,omitempty"`
}

// CacheConfig addresses a lookaside blob cache.
type CacheConfig struct {
	URL  string `yaml:"url" validate:"required"`
	CGI  string `yaml:"cgi" validate:"required"`
	Path string `yaml:"path" validate:"required"`
}

// MBSConfig is the destination's Module Build Service endpoint (§4.2).
type MBSConfig struct {
	AuthMethod       string   `yaml:"auth_method" validate:"required,oneof=kerberos oidc"`
	APIURL           string   `yaml:"api_url" validate:"required"`
	OIDCIDProvider   string   `yaml:"oidc_id_provider"`
	OIDCClientID     string   `yaml:"oidc_client_id"`
	OIDCClientSecret string   `yaml:"oidc_client_secret"`
	OIDCScopes       []string `yaml:"oidc_scopes"`
}

// Trigger names the build-system tags that drive synchronization.
type Trigger struct {
	RPMs    string `yaml:"rpms" validate:"required"`
	Modules string `yaml:"modules" validate:"required"`
}

// Build parameterizes destination build submission.
type Build struct {
	Prefix   string `yaml:"prefix" validate:"required"`
	Target   string `yaml:"target" validate:"required"`
	Platform string `yaml:"platform" validate:"required"` // "name:stream" form
	Scratch  bool   `yaml:"scratch"`
}

// Git names the commit identity and message template used for synced
// commits (§4.3 Strategy A/B).
type Git struct {
	Author  string `yaml:"author" validate:"required"`
	Email   string `yaml:"email" validate:"required"`
	Message string `yaml:"message" validate:"required"`
}

// Control toggles the dispatcher's behavior (§4.7).
type Control struct {
	Build   bool    `yaml:"build"`
	Merge   bool    `yaml:"merge"`
	Strict  bool    `yaml:"strict"`
	Exclude Exclude `yaml:"exclude"`
}

// Exclude lists components, per namespace, that never progress past the
// dispatcher filter (§4.7, invariant 7).
type Exclude struct {
	RPMs    []string `yaml:"rpms"`
	Modules []string `yaml:"modules"`
}

// Contains reports whether name is excluded in the given namespace.
func (e Exclude) Contains(namespace, name string) bool {
	var list []string
	switch namespace {
	case "rpms":
		list = e.RPMs
	case "modules":
		list = e.Modules
	}
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}

// Defaults holds the template strings substituted by Resolve (§4.1).
type Defaults struct {
	Cache   DefaultPair    `yaml:"cache" validate:"required"`
	RPMs    DefaultPair    `yaml:"rpms" validate:"required"`
	Modules ModuleDefaults `yaml:"modules" validate:"required"`
}

// DefaultPair is a source/destination template pair, e.g.
// defaults.cache.{source,destination} or defaults.rpms.{source,destination}.
type DefaultPair struct {
	Source      string `yaml:"source" validate:"required"`
	Destination string `yaml:"destination" validate:"required"`
}

// ModuleDefaults additionally carries the templates used for a module's
// constituent packages, defaulting to Defaults.RPMs when unset (§3).
type ModuleDefaults struct {
	Source      string      `yaml:"source" validate:"required"`
	Destination string      `yaml:"destination" validate:"required"`
	RPMs        DefaultPair `yaml:"rpms"`
}

// NamespaceMap is "components.rpms" or "components.modules": per-component
// overrides keyed by component name.
type NamespaceMap map[string]ComponentOverride

// ComponentOverride overrides a component's resolved source/destination
// and cache URLs; for modules, RPMs further overrides constituent
// packages using the same override shape.
type ComponentOverride struct {
	Source      string                       `yaml:"source"`
	Destination string                       `yaml:"destination"`
	Cache       CacheOverride                `yaml:"cache"`
	RPMs        map[string]ComponentOverride `yaml:"rpms,omitempty"`
}

// CacheOverride overrides a component's cache name, independent of its VCS
// override.
type CacheOverride struct {
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
}
