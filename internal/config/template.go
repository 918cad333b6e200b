package config

import "strings"

// Placeholders is the named-substitution set a URL template may reference
// (§3, §9). Unlike fmt.Sprintf, Expand leaves any placeholder it does not
// recognize untouched, per §9's note that template expansion is a named
// substitution, not string formatting. HasUnresolvedPlaceholder looks only
// for the four recognized names, so an unrecognized placeholder is not
// reported by it.
type Placeholders struct {
	Component string
	Stream    string
	Name      string
	Ref       string
}

var placeholderNames = []string{"%(component)s", "%(stream)s", "%(name)s", "%(ref)s"}

// Expand substitutes every recognized placeholder in tmpl with the
// corresponding field of p; an empty field is substituted as an empty
// string.
func Expand(tmpl string, p Placeholders) string {
	r := strings.NewReplacer(
		"%(component)s", p.Component,
		"%(stream)s", p.Stream,
		"%(name)s", p.Name,
		"%(ref)s", p.Ref,
	)
	return r.Replace(tmpl)
}

// HasUnresolvedPlaceholder reports whether s still contains any of the
// four named placeholders, meaning expansion was skipped (or a substituted
// value itself contained one). An empty substitution value is not
// detected here, since Expand replaces it with an empty string.
func HasUnresolvedPlaceholder(s string) bool {
	for _, ph := range placeholderNames {
		if strings.Contains(s, ph) {
			return true
		}
	}
	return false
}
