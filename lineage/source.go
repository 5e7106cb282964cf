package lineage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// A Spec is an explicitly requested lineage: a name, optionally paired with a
// responder URL override as "name:url" on the command line.
type Spec struct {
	Name         string
	ResponderURL string
}

// ParseSpec splits a "name[:url]" command line argument. The split is on the
// first colon because the URL part contains colons of its own.
func ParseSpec(arg string) Spec {
	name, url, _ := strings.Cut(arg, ":")
	return Spec{Name: name, ResponderURL: url}
}

// Standalone enumerates the lineages for a standalone run. With explicit
// specs, each named lineage directory must exist and be readable under root;
// any that is not fails the whole run. With no specs, every subdirectory of
// root is a lineage and non-directory entries are skipped.
func Standalone(root string, specs []Spec) ([]Lineage, error) {
	if len(specs) > 0 {
		return named(root, specs)
	}
	return enumerate(root)
}

func named(root string, specs []Spec) ([]Lineage, error) {
	var lineages []Lineage
	for _, spec := range specs {
		dir := filepath.Join(root, spec.Name)
		l, err := New(spec.Name, dir, spec.ResponderURL)
		if err != nil {
			return nil, err
		}
		// Check readability up front so a bad name fails the run before any
		// lineage has been processed.
		_, err = os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("lineage %q is not accessible: %w", spec.Name, err)
		}
		lineages = append(lineages, l)
	}
	return lineages, nil
}

func enumerate(root string) ([]Lineage, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading lineage root directory: %w", err)
	}
	var lineages []Lineage
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		l, err := New(entry.Name(), filepath.Join(root, entry.Name()), "")
		if err != nil {
			return nil, err
		}
		lineages = append(lineages, l)
	}
	return lineages, nil
}

// Hook returns the single lineage for a deploy-hook run. renewedPath is the
// lineage directory certbot exports as RENEWED_LINEAGE.
func Hook(renewedPath string) (Lineage, error) {
	abs, err := filepath.Abs(renewedPath)
	if err != nil {
		return Lineage{}, fmt.Errorf("resolving renewed lineage path: %w", err)
	}
	return New(filepath.Base(abs), abs, "")
}
