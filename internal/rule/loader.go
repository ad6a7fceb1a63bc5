package rule

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// defaultPattern matches every YAML rule file in a directory tree, mirroring
// the teacher's filewalker default of "include everything unless told
// otherwise."
const defaultPattern = "**/*.{yml,yaml}"

// LoadError records one rule file's load failure without aborting the
// directory scan (§7: a single malformed rule degrades to a skip, not a
// run failure).
type LoadError struct {
	Path string
	Err  error
}

func (e LoadError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

// LoadDir discovers and parses every rule file under dir matching pattern
// (defaultPattern if empty), returning the successfully parsed rules in
// deterministic (lexical path) order plus any per-file load errors.
func LoadDir(dir, pattern string) ([]*Rule, []LoadError, error) {
	if pattern == "" {
		pattern = defaultPattern
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		matched, err := doublestar.Match(pattern, filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("rule: invalid glob pattern %q: %w", pattern, err)
		}
		if matched {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("rule: scanning %s: %w", dir, err)
	}
	sort.Strings(paths)

	var rules []*Rule
	var loadErrs []LoadError
	seen := map[string]string{}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			loadErrs = append(loadErrs, LoadError{Path: p, Err: err})
			continue
		}
		r, err := Parse(p, data)
		if err != nil {
			loadErrs = append(loadErrs, LoadError{Path: p, Err: err})
			continue
		}
		if prior, dup := seen[r.ID]; dup {
			loadErrs = append(loadErrs, LoadError{Path: p, Err: fmt.Errorf("duplicate rule id %q (already loaded from %s)", r.ID, prior)})
			continue
		}
		seen[r.ID] = p
		rules = append(rules, r)
	}
	return rules, loadErrs, nil
}
