// Package recipe matches free-text requests to application recipes.
//
// The Resolver interface is the only thing the submission pipeline depends
// on; implementations may range from exact keyword scoring to embedding
// search without touching the core.
package recipe

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/jobsherpa/jobsherpa/pkg/kb"
)

// Resolver finds the recipe best matching a free-text prompt.
//
// A nil recipe with nil error means no recipe matched; that is a normal
// outcome, not a failure.
type Resolver interface {
	FindBest(prompt string) (*kb.Recipe, error)
}

// FromMeta decodes a generic metadata map (e.g. a retrieved document's
// metadata) into a Recipe. Unknown keys are rejected so a malformed index
// entry surfaces loudly instead of producing a half-empty recipe.
func FromMeta(meta map[string]any) (*kb.Recipe, error) {
	var r kb.Recipe
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &r,
		TagName:     "json",
		ErrorUnused: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build recipe decoder: %w", err)
	}
	if err := dec.Decode(meta); err != nil {
		return nil, fmt.Errorf("decode recipe metadata: %w", err)
	}
	if r.Name == "" {
		return nil, fmt.Errorf("recipe metadata has no name")
	}
	return &r, nil
}
