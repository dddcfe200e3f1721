package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/jsonc"
)

// FileName is the manifest file looked up in the project root.
const FileName = "package.json"

// ErrNotFound is returned when the project root has no package.json.
var ErrNotFound = errors.New("package.json not found")

// ModuleKind is the module system Node applies to .js files in the
// project.
type ModuleKind string

const (
	// ModuleESM is selected by "type": "module".
	ModuleESM ModuleKind = "esm"

	// ModuleCommonJS is Node's default when "type" is absent or
	// "commonjs".
	ModuleCommonJS ModuleKind = "commonjs"
)

// String returns the string representation of ModuleKind.
func (k ModuleKind) String() string {
	return string(k)
}

// BootstrapExt is the file extension the production bootstrap needs so
// Node loads it with this module kind regardless of the "type" field.
func (k ModuleKind) BootstrapExt() string {
	if k == ModuleESM {
		return ".js"
	}
	return ".cjs"
}

// Package is the subset of package.json the tooling reads.
type Package struct {
	Name            string            `json:"name"`
	Version         string            `json:"version,omitempty"`
	Type            string            `json:"type,omitempty"`
	Scripts         map[string]string `json:"scripts,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
}

// Load reads and parses <root>/package.json.
func Load(root string) (*Package, error) {
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w in %s", ErrNotFound, root)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes package.json content, tolerating comments and trailing
// commas.
func Parse(data []byte) (*Package, error) {
	var pkg Package
	if err := json.Unmarshal(jsonc.ToJSON(data), &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}
	return &pkg, nil
}

// ModuleKind reports the module system selected by the "type" field.
func (p *Package) ModuleKind() ModuleKind {
	if p != nil && p.Type == "module" {
		return ModuleESM
	}
	return ModuleCommonJS
}

// HasDependency reports whether name is listed in dependencies or
// devDependencies.
func (p *Package) HasDependency(name string) bool {
	if p == nil {
		return false
	}
	if _, ok := p.Dependencies[name]; ok {
		return true
	}
	_, ok := p.DevDependencies[name]
	return ok
}

// Problem is a single finding from Check.
type Problem struct {
	// Field is the package.json field the finding is about.
	Field string

	// Message describes the finding.
	Message string
}

// Error implements the error interface for Problem.
func (p Problem) Error() string {
	return fmt.Sprintf("package.json: %s: %s", p.Field, p.Message)
}

// Check reports manifest problems that would make the given tools fail
// later. tools lists npm package names the caller is about to invoke
// (e.g., "vite", "esbuild"). An empty result means nothing was found.
func Check(p *Package, tools ...string) []Problem {
	var problems []Problem

	switch p.Type {
	case "", "module", "commonjs":
	default:
		problems = append(problems, Problem{
			Field:   "type",
			Message: fmt.Sprintf("unknown module type %q (valid: module, commonjs)", p.Type),
		})
	}

	missing := make([]string, 0, len(tools))
	for _, tool := range tools {
		if !p.HasDependency(tool) {
			missing = append(missing, tool)
		}
	}
	sort.Strings(missing)
	for _, tool := range missing {
		problems = append(problems, Problem{
			Field:   "devDependencies",
			Message: fmt.Sprintf("%s is not declared; npx will try to download it", tool),
		})
	}

	return problems
}
