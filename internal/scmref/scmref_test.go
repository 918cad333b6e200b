package scmref

import "testing"

func TestParse_RoundTrip(t *testing.T) {
	cases := []string{
		"https://src.example.com/rpms/foo#main",
		"https://src.example.com/rpms/foo#a1b2c3d4",
		"git://example.com/modules/bar.git#stream-1.0",
	}
	for _, in := range cases {
		r := Parse(in)
		if got := r.String(); got != in {
			t.Errorf("Parse(%q).String() = %q, want %q", in, got, in)
		}
	}
}

func TestParse_DefaultRef(t *testing.T) {
	r := Parse("https://src.example.com/rpms/foo")
	if r.Ref != DefaultRef {
		t.Errorf("Ref = %q, want %q", r.Ref, DefaultRef)
	}
	// The bare link (no original fragment) still round-trips without one
	// once Ref has been explicitly cleared.
	bare := r
	bare.Ref = ""
	if got := bare.String(); got != "https://src.example.com/rpms/foo" {
		t.Errorf("bare.String() = %q", got)
	}
}

func TestParse_NamespaceComponent(t *testing.T) {
	r := Parse("https://src.example.com/rpms/foo.git#main")
	if r.Namespace != "rpms" || r.Component != "foo" {
		t.Errorf("got namespace=%q component=%q", r.Namespace, r.Component)
	}
}

func TestParseModuleCoord(t *testing.T) {
	cases := []struct {
		in   string
		name string
		str  string
	}{
		{"mymod:1.0", "mymod", "1.0"},
		{"mymod", "mymod", DefaultStream},
		{"mymod:", "mymod", DefaultStream},
	}
	for _, c := range cases {
		got := ParseModuleCoord(c.in)
		if got.Name != c.name || got.Stream != c.str {
			t.Errorf("ParseModuleCoord(%q) = %+v, want {%q %q}", c.in, got, c.name, c.str)
		}
	}
}

func TestModuleCoord_String(t *testing.T) {
	c := ModuleCoord{Name: "mymod", Stream: "1.0"}
	if got := c.String(); got != "mymod:1.0" {
		t.Errorf("String() = %q", got)
	}
}
