package lineage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/letsencrypt/ocsp-fetcher/test"
)

func TestParseSpec(t *testing.T) {
	spec := ParseSpec("example.com")
	test.AssertEquals(t, spec.Name, "example.com")
	test.AssertEquals(t, spec.ResponderURL, "")

	spec = ParseSpec("example.com:http://ocsp.int-x3.letsencrypt.org:80/")
	test.AssertEquals(t, spec.Name, "example.com")
	test.AssertEquals(t, spec.ResponderURL, "http://ocsp.int-x3.letsencrypt.org:80/")
}

func TestStandaloneEnumerates(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b.example.org", "a.example.com"} {
		err := os.Mkdir(filepath.Join(root, name), 0755)
		test.AssertNotError(t, err, "creating lineage dir")
	}
	// certbot leaves a README alongside the lineage directories; it must be
	// skipped, not treated as a lineage.
	err := os.WriteFile(filepath.Join(root, "README"), []byte("hi"), 0644)
	test.AssertNotError(t, err, "writing README")

	lineages, err := Standalone(root, nil)
	test.AssertNotError(t, err, "standalone enumeration")
	test.AssertEquals(t, len(lineages), 2)
	test.AssertEquals(t, lineages[0].Name, "a.example.com")
	test.AssertEquals(t, lineages[1].Name, "b.example.org")
}

func TestStandaloneEmptyRoot(t *testing.T) {
	lineages, err := Standalone(t.TempDir(), nil)
	test.AssertNotError(t, err, "standalone enumeration of empty root")
	test.AssertEquals(t, len(lineages), 0)
}

func TestStandaloneMissingRoot(t *testing.T) {
	_, err := Standalone(filepath.Join(t.TempDir(), "nope"), nil)
	test.AssertError(t, err, "expected error for missing root")
}

func TestStandaloneNamed(t *testing.T) {
	root := t.TempDir()
	err := os.Mkdir(filepath.Join(root, "example.com"), 0755)
	test.AssertNotError(t, err, "creating lineage dir")

	lineages, err := Standalone(root, []Spec{{Name: "example.com", ResponderURL: "http://ocsp.example.test"}})
	test.AssertNotError(t, err, "named enumeration")
	test.AssertEquals(t, len(lineages), 1)
	test.AssertEquals(t, lineages[0].ResponderURL, "http://ocsp.example.test")
}

func TestStandaloneNamedInaccessible(t *testing.T) {
	root := t.TempDir()
	err := os.Mkdir(filepath.Join(root, "present"), 0755)
	test.AssertNotError(t, err, "creating lineage dir")

	// One bad name out of two fails the whole run.
	_, err = Standalone(root, []Spec{{Name: "present"}, {Name: "absent"}})
	test.AssertError(t, err, "expected error for inaccessible lineage")
	test.AssertContains(t, err.Error(), "absent")
}

func TestStandaloneNamedBadName(t *testing.T) {
	_, err := Standalone(t.TempDir(), []Spec{{Name: "bad\tname"}})
	test.AssertErrorIs(t, err, ErrUnsupportedName)
}

func TestEnumerateBadName(t *testing.T) {
	root := t.TempDir()
	err := os.Mkdir(filepath.Join(root, "bad\tname"), 0755)
	test.AssertNotError(t, err, "creating lineage dir")

	_, err = Standalone(root, nil)
	test.AssertErrorIs(t, err, ErrUnsupportedName)
}

func TestHook(t *testing.T) {
	l, err := Hook("/etc/letsencrypt/live/example.com")
	test.AssertNotError(t, err, "hook lineage")
	test.AssertEquals(t, l.Name, "example.com")
	test.AssertEquals(t, l.Dir, "/etc/letsencrypt/live/example.com")

	// Trailing separators must not produce an empty name.
	l, err = Hook("/etc/letsencrypt/live/example.com/")
	test.AssertNotError(t, err, "hook lineage with trailing slash")
	test.AssertEquals(t, l.Name, "example.com")
}
