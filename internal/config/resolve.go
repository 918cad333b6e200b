package config

import (
	"fmt"
	"strings"

	"github.com/release-engineering/distrobaker/internal/scmref"
)

// Resolved is the per-component output of Resolve/ResolveModuleSubcomponent
// (§4.1): the source and destination SCM coordinates and lookaside cache
// names a pipeline run needs.
type Resolved struct {
	SourceSCM       scmref.Ref
	DestSCM         scmref.Ref
	SourceCacheName string
	DestCacheName   string
}

// Resolve computes URLs for component in namespace ("rpms" or "modules"),
// locating components[namespace][component] if present, else falling back
// to defaults[namespace], substituting the named placeholders, and joining
// with source.scm/destination.scm (§4.1).
func Resolve(cfg *Config, namespace, component string, ph Placeholders) (Resolved, error) {
	ph.Component = component
	pair, cachePair, override := lookupDefaults(cfg, namespace, component)

	srcTmpl, dstTmpl := pair.Source, pair.Destination
	srcCache, dstCache := cachePair.Source, cachePair.Destination
	if override != nil {
		if override.Source != "" {
			srcTmpl = override.Source
		}
		if override.Destination != "" {
			dstTmpl = override.Destination
		}
		if override.Cache.Source != "" {
			srcCache = override.Cache.Source
		}
		if override.Cache.Destination != "" {
			dstCache = override.Cache.Destination
		}
	}

	return buildResolved(cfg, srcTmpl, dstTmpl, srcCache, dstCache, ph)
}

// ResolveModuleSubcomponent resolves an RPM constituent sub of module,
// using components.modules[module].rpms[sub] when present, else
// defaults.modules.rpms; as required by §4.1, when the chosen template
// lacks a '#' fragment, "#%(ref)s" is appended before substitution.
func ResolveModuleSubcomponent(cfg *Config, module, sub string, ph Placeholders) (Resolved, error) {
	ph.Component = sub
	pair := cfg.Configuration.Defaults.Modules.RPMs
	if pair.Source == "" && pair.Destination == "" {
		pair = cfg.Configuration.Defaults.RPMs
	}
	var srcCache, dstCache string
	if mod, ok := cfg.Components["modules"]; ok {
		if modOverride, ok := mod[module]; ok {
			if sc, ok := modOverride.RPMs[sub]; ok {
				if sc.Source != "" {
					pair.Source = sc.Source
				}
				if sc.Destination != "" {
					pair.Destination = sc.Destination
				}
				srcCache, dstCache = sc.Cache.Source, sc.Cache.Destination
			}
		}
	}

	srcTmpl := appendRefFragment(pair.Source)
	dstTmpl := appendRefFragment(pair.Destination)

	return buildResolved(cfg, srcTmpl, dstTmpl, srcCache, dstCache, ph)
}

func appendRefFragment(tmpl string) string {
	if !strings.Contains(tmpl, "#") {
		return tmpl + "#%(ref)s"
	}
	return tmpl
}

// lookupDefaults returns the default template pair, default cache pair,
// and any per-component override for namespace/component.
func lookupDefaults(cfg *Config, namespace, component string) (DefaultPair, DefaultPair, *ComponentOverride) {
	var pair DefaultPair
	switch namespace {
	case "rpms":
		pair = cfg.Configuration.Defaults.RPMs
	case "modules":
		pair = DefaultPair{
			Source:      cfg.Configuration.Defaults.Modules.Source,
			Destination: cfg.Configuration.Defaults.Modules.Destination,
		}
	}
	cachePair := cfg.Configuration.Defaults.Cache

	var override *ComponentOverride
	if nsMap, ok := cfg.Components[namespace]; ok {
		if ov, ok := nsMap[component]; ok {
			override = &ov
		}
	}
	return pair, cachePair, override
}

func buildResolved(cfg *Config, srcTmpl, dstTmpl, srcCacheName, dstCacheName string, ph Placeholders) (Resolved, error) {
	srcPath := Expand(srcTmpl, ph)
	dstPath := Expand(dstTmpl, ph)
	if HasUnresolvedPlaceholder(srcPath) || HasUnresolvedPlaceholder(dstPath) {
		return Resolved{}, fmt.Errorf("config: unresolved placeholder in resolved URL (source=%q destination=%q)", srcPath, dstPath)
	}

	sourceSCM := scmref.Parse(joinSCM(cfg.Configuration.Source.SCM, srcPath))
	destSCM := scmref.Parse(joinSCM(cfg.Configuration.Destination.SCM, dstPath))

	return Resolved{
		SourceSCM:       sourceSCM,
		DestSCM:         destSCM,
		SourceCacheName: srcCacheName,
		DestCacheName:   dstCacheName,
	}, nil
}

func joinSCM(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
