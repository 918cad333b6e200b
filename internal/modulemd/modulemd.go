// Package modulemd decodes a module's metadata document into the
// module-stream v2 structure the Module Expander (C6, §4.6) needs: the
// RPM and module constituent lists, and each RPM constituent's
// repository/cache/ref.
//
// Real modulemd documents are YAML; there is no libmodulemd Go binding
// in the example pack (or the wider ecosystem), so this decodes with
// gopkg.in/yaml.v3 following the same decode+validate shape as the
// teacher's internal/infrastructure/routing and .../inhibition parsers.
package modulemd

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/release-engineering/distrobaker/internal/errs"
)

// StreamV2 is the subset of a module-stream v2 document DistroBaker
// needs. Any other document version/shape is rejected (§4.6 "rejects
// any other shape").
type StreamV2 struct {
	Document string `yaml:"document"`
	Version  int    `yaml:"version"`
	Data     struct {
		Components struct {
			RPMs    map[string]RPMComponent    `yaml:"rpms"`
			Modules map[string]ModuleComponent `yaml:"modules"`
		} `yaml:"components"`
	} `yaml:"data"`
}

// RPMComponent is one constituent package entry under
// data.components.rpms.
type RPMComponent struct {
	Repository string `yaml:"repository"`
	Cache      string `yaml:"cache"`
	Ref        string `yaml:"ref"`
}

// ModuleComponent is one constituent module entry under
// data.components.modules. Recursive module-of-modules expansion is
// explicitly unsupported (§4.6, §9 open question 2).
type ModuleComponent struct {
	Repository string `yaml:"repository"`
	Ref        string `yaml:"ref"`
}

const expectedDocument = "modulemd"
const expectedVersion = 2

// Parse decodes raw as a module-stream v2 document. Any document whose
// "document"/"version" fields don't match modulemd v2, or that fails to
// parse as YAML at all, yields a *errs.Error of kind KindModuleMetadata.
func Parse(raw string) (StreamV2, error) {
	var doc StreamV2
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return StreamV2{}, errs.ModuleMetadata("parse modulemd document", err)
	}
	if doc.Document != expectedDocument || doc.Version != expectedVersion {
		return StreamV2{}, errs.ModuleMetadata("parse modulemd document",
			fmt.Errorf("unsupported document %q version %d, want %q version %d", doc.Document, doc.Version, expectedDocument, expectedVersion))
	}
	return doc, nil
}

// RPMNames returns the declared RPM constituent names, used by the
// Module Expander to iterate sub-components.
func (s StreamV2) RPMNames() []string {
	names := make([]string, 0, len(s.Data.Components.RPMs))
	for name := range s.Data.Components.RPMs {
		names = append(names, name)
	}
	return names
}

// ModuleNames returns the declared module constituent names.
func (s StreamV2) ModuleNames() []string {
	names := make([]string, 0, len(s.Data.Components.Modules))
	for name := range s.Data.Components.Modules {
		names = append(names, name)
	}
	return names
}

// SCMURL builds "repository" or "repository#ref" for the named RPM
// constituent (§4.6 "build scmurl = repository or repository#ref").
func (c RPMComponent) SCMURL() string {
	if c.Ref == "" {
		return c.Repository
	}
	return c.Repository + "#" + c.Ref
}
