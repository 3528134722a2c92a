package policy

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Module is one Rego source from a policy bundle.
type Module struct {
	Name   string
	Source string
}

// ReadBundle collects the .rego policies under dir, including nested
// packages. Rego unit tests (*_test.rego) and dot entries are skipped.
// Modules are ordered by their slash-separated path relative to dir.
func ReadBundle(dir string) ([]Module, error) {
	var modules []Module
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isPolicyFile(d.Name()) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		modules = append(modules, Module{Name: filepath.ToSlash(rel), Source: string(data)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortModules(modules)
	return modules, nil
}

// modulesFrom turns name-keyed sources into a deterministic module list.
func modulesFrom(sources map[string]string) []Module {
	modules := make([]Module, 0, len(sources))
	for name, src := range sources {
		modules = append(modules, Module{Name: name, Source: src})
	}
	sortModules(modules)
	return modules
}

func sortModules(modules []Module) {
	sort.Slice(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })
}

func isPolicyFile(name string) bool {
	return filepath.Ext(name) == ".rego" && !strings.HasSuffix(name, "_test.rego")
}
