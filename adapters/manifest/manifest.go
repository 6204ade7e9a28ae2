// Package manifest loads YAML campaign manifests.
//
//	name: line-1
//	reference: ref.s2p
//	monte_carlo:
//	  - mc/sample_001.s2p
//	cross_validation_glob: cv/*.s2p
//
// Relative paths, including glob patterns, resolve against the manifest's
// directory. Glob matches are sorted and appended after the listed files.
package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/elstanto/muncon/domain/core"
	"github.com/elstanto/muncon/ports"

	"gopkg.in/yaml.v3"
)

type manifestYAML struct {
	Name                string   `yaml:"name"`
	Reference           string   `yaml:"reference"`
	MonteCarlo          []string `yaml:"monte_carlo,omitempty"`
	MonteCarloGlob      string   `yaml:"monte_carlo_glob,omitempty"`
	CrossValidation     []string `yaml:"cross_validation,omitempty"`
	CrossValidationGlob string   `yaml:"cross_validation_glob,omitempty"`
}

// Loader implements ports.ManifestLoader.
type Loader struct{}

// NewLoader creates a manifest loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadManifest reads path and resolves every listed file.
func (l *Loader) LoadManifest(ctx context.Context, path string) (*ports.CampaignManifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes a manifest and resolves its paths against dir.
func Parse(data []byte, dir string) (*ports.CampaignManifest, error) {
	var y manifestYAML
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", core.ErrMalformedFile, err)
	}
	if y.Reference == "" {
		return nil, fmt.Errorf("%w: manifest has no reference", core.ErrMalformedFile)
	}

	mc, err := collect(dir, y.MonteCarlo, y.MonteCarloGlob)
	if err != nil {
		return nil, err
	}
	cv, err := collect(dir, y.CrossValidation, y.CrossValidationGlob)
	if err != nil {
		return nil, err
	}
	if len(mc) == 0 && len(cv) == 0 {
		return nil, fmt.Errorf("%w: manifest lists no samples", core.ErrMalformedFile)
	}

	name := y.Name
	if name == "" {
		name = filepath.Base(dir)
	}
	return &ports.CampaignManifest{
		Name:                   name,
		Reference:              resolve(dir, y.Reference),
		MonteCarloSamples:      mc,
		CrossValidationSamples: cv,
	}, nil
}

func collect(dir string, listed []string, pattern string) ([]string, error) {
	var out []string
	for _, p := range listed {
		out = append(out, resolve(dir, p))
	}
	if pattern == "" {
		return out, nil
	}
	matches, err := filepath.Glob(resolve(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("%w: glob %q: %v", core.ErrMalformedFile, pattern, err)
	}
	sort.Strings(matches)
	return append(out, matches...), nil
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, filepath.FromSlash(p))
}
