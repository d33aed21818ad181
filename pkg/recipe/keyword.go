package recipe

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jobsherpa/jobsherpa/pkg/kb"
)

// KeywordIndex is an in-process Resolver scoring recipes by keyword overlap.
//
// Scoring counts how many declared keywords appear as substrings of the
// prompt (case-insensitive). Recipes whose name appears in the prompt are
// preferred as candidates before the full set is considered. If no recipe
// scores within the candidate set but exactly one recipe in the whole index
// has any keyword hit, that one wins.
type KeywordIndex struct {
	dir     string
	logger  *zap.Logger
	recipes []*kb.Recipe
}

// NewKeywordIndex creates a keyword resolver over the applications directory
// of a knowledge base.
func NewKeywordIndex(kbDir string, logger *zap.Logger) *KeywordIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeywordIndex{dir: filepath.Join(kbDir, "applications"), logger: logger}
}

// Reindex reloads all recipe files from disk. Unreadable files are skipped.
func (idx *KeywordIndex) Reindex() error {
	idx.recipes = nil
	if _, err := os.Stat(idx.dir); err != nil {
		if os.IsNotExist(err) {
			idx.logger.Warn("applications directory not found", zap.String("dir", idx.dir))
			return nil
		}
		return err
	}
	matches, err := doublestar.Glob(os.DirFS(idx.dir), "*.{yaml,yml}")
	if err != nil {
		return err
	}
	for _, m := range matches {
		path := filepath.Join(idx.dir, m)
		data, err := os.ReadFile(path)
		if err != nil {
			idx.logger.Warn("failed to read recipe", zap.String("path", path), zap.Error(err))
			continue
		}
		var r kb.Recipe
		if err := yaml.Unmarshal(data, &r); err != nil || r.Name == "" {
			idx.logger.Warn("failed to parse recipe", zap.String("path", path), zap.Error(err))
			continue
		}
		idx.recipes = append(idx.recipes, &r)
	}
	return nil
}

func score(r *kb.Recipe, prompt string) int {
	n := 0
	for _, k := range r.Keywords {
		k = strings.ToLower(k)
		if k != "" && strings.Contains(prompt, k) {
			n++
		}
	}
	return n
}

// FindBest returns the highest-scoring recipe for the prompt, or nil when
// nothing matches.
func (idx *KeywordIndex) FindBest(prompt string) (*kb.Recipe, error) {
	if len(idx.recipes) == 0 {
		if err := idx.Reindex(); err != nil {
			return nil, err
		}
	}
	lower := strings.ToLower(prompt)

	// Prefer recipes whose name appears verbatim in the prompt.
	var candidates []*kb.Recipe
	for _, r := range idx.recipes {
		if r.Name != "" && strings.Contains(lower, strings.ToLower(r.Name)) {
			candidates = append(candidates, r)
		}
	}
	searchSpace := candidates
	if len(searchSpace) == 0 {
		searchSpace = idx.recipes
	}

	var best *kb.Recipe
	bestScore := 0
	for _, r := range searchSpace {
		if s := score(r, lower); s > bestScore {
			bestScore = s
			best = r
		}
	}
	if best != nil {
		return best, nil
	}

	// No overlap in the search space: if exactly one recipe anywhere has a
	// hit, take it.
	var single *kb.Recipe
	hits := 0
	for _, r := range idx.recipes {
		if score(r, lower) > 0 {
			hits++
			single = r
		}
	}
	if hits == 1 {
		return single, nil
	}
	return nil, nil
}
