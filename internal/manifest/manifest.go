// Package manifest parses and serializes the lookaside-cache "sources"
// manifest files committed at the root of each component's working tree.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// HashType identifies which integrity algorithm a SourceEntry's hash uses.
type HashType string

const (
	MD5    HashType = "md5"
	SHA512 HashType = "sha512"
)

// Entry is one line of a sources manifest: a filename paired with its
// declared hash and the algorithm that hash was computed with.
type Entry struct {
	Filename string
	Hash     string
	HashType HashType
}

// Manifest is a set of Entries, keyed by filename.
type Manifest map[string]Entry

var (
	md5Line    = regexp.MustCompile(`^([0-9a-fA-F]{32})\s+(.+)$`)
	sha512Line = regexp.MustCompile(`^SHA512 \((.+)\) = ([0-9a-fA-F]{128})$`)
)

// ParseEntry parses a single non-empty manifest line, in either the
// "<md5>  <file>" or "SHA512 (<file>) = <hex128>" form. The hash's length
// determines its type: 32 hex chars is md5, 128 is sha512.
func ParseEntry(line string) (Entry, error) {
	if m := md5Line.FindStringSubmatch(line); m != nil {
		return Entry{Filename: m[2], Hash: strings.ToLower(m[1]), HashType: MD5}, nil
	}
	if m := sha512Line.FindStringSubmatch(line); m != nil {
		return Entry{Filename: m[1], Hash: strings.ToLower(m[2]), HashType: SHA512}, nil
	}
	return Entry{}, fmt.Errorf("manifest: unparseable line %q", line)
}

// Parse reads a full sources file. A blank file yields an empty Manifest.
// Any unparseable non-empty line is a parse failure for the whole file.
func Parse(r io.Reader) (Manifest, error) {
	m := make(Manifest)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := ParseEntry(line)
		if err != nil {
			return nil, err
		}
		m[entry.Filename] = entry
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return m, nil
}

// ParseFile reads the sources file at path. A missing file yields an
// empty Manifest, not an error.
func ParseFile(path string) (Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(Manifest), nil
		}
		return nil, fmt.Errorf("manifest: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// String serializes an Entry back to its canonical manifest line.
func (e Entry) String() string {
	switch e.HashType {
	case SHA512:
		return fmt.Sprintf("SHA512 (%s) = %s", e.Filename, e.Hash)
	default:
		return fmt.Sprintf("%s  %s", e.Hash, e.Filename)
	}
}

// Diff returns the set of entries present in s but absent (by filename) or
// differing (by hash) from d — the "sourceManifest − destinationManifest"
// set difference used to drive the Lookaside Reconciler (§4.4).
func Diff(s, d Manifest) []Entry {
	var out []Entry
	for name, se := range s {
		if de, ok := d[name]; !ok || de.Hash != se.Hash {
			out = append(out, se)
		}
	}
	return out
}
