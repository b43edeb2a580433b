package proxy

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultUpstreamModel is used whenever a caller model misses the mapping.
const DefaultUpstreamModel = "deepseek-chat"

var defaultModelMap = map[string]string{
	"gpt-3.5-turbo":     "deepseek-chat",
	"gpt-4":             "deepseek-chat",
	"gpt-4o":            "deepseek-chat",
	"gpt-4o-mini":       "deepseek-chat",
	"o1":                "deepseek-reasoner",
	"o1-mini":           "deepseek-reasoner",
	"deepseek-chat":     "deepseek-chat",
	"deepseek-reasoner": "deepseek-reasoner",
}

// Resolver maps caller model identifiers to upstream ones. The mapping is
// fixed at construction and never mutated afterwards.
type Resolver struct {
	mapping  map[string]string
	fallback string
}

func NewResolver() *Resolver {
	mapping := make(map[string]string, len(defaultModelMap))
	for k, v := range defaultModelMap {
		mapping[k] = v
	}
	return &Resolver{mapping: mapping, fallback: DefaultUpstreamModel}
}

type modelMapFile struct {
	Default string            `yaml:"default"`
	Models  map[string]string `yaml:"models"`
}

// LoadResolver builds a resolver from a YAML mapping file:
//
//	default: deepseek-chat
//	models:
//	  gpt-4o: deepseek-chat
func LoadResolver(path string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model map: %w", err)
	}

	var file modelMapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse model map: %w", err)
	}
	if len(file.Models) == 0 {
		return nil, fmt.Errorf("model map %s: no models defined", path)
	}

	fallback := file.Default
	if fallback == "" {
		fallback = DefaultUpstreamModel
	}

	mapping := make(map[string]string, len(file.Models))
	for k, v := range file.Models {
		mapping[k] = v
	}
	return &Resolver{mapping: mapping, fallback: fallback}, nil
}

// Resolve returns the upstream model for a caller model. Lookup is exact and
// case-sensitive; a miss or empty input yields the fallback. Never fails.
func (r *Resolver) Resolve(model string) string {
	if upstream, ok := r.mapping[model]; ok {
		return upstream
	}
	return r.fallback
}

// Fallback returns the default upstream model identifier.
func (r *Resolver) Fallback() string {
	return r.fallback
}

// Models returns the caller-visible model identifiers in sorted order.
func (r *Resolver) Models() []string {
	ids := make([]string, 0, len(r.mapping))
	for id := range r.mapping {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
