package kb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// listProfiles returns the profile names (file stems) under dir, discovered
// by glob so nested layouts keep working.
func listProfiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat knowledge base dir: %w", err)
	}
	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.{yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("glob knowledge base dir: %w", err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		names = append(names, strings.TrimSuffix(strings.TrimSuffix(base, ".yaml"), ".yml"))
	}
	return names, nil
}

// SystemIndex resolves system names appearing in free text.
type SystemIndex struct {
	svc      *Service
	profiles map[string]*SystemProfile
}

// NewSystemIndex builds an index over all system profiles in the knowledge
// base. Unreadable profiles are skipped.
func NewSystemIndex(svc *Service) (*SystemIndex, error) {
	names, err := listProfiles(filepath.Join(svc.baseDir, systemDir))
	if err != nil {
		return nil, err
	}
	idx := &SystemIndex{svc: svc, profiles: make(map[string]*SystemProfile)}
	for _, name := range names {
		p, err := svc.LoadSystem(name)
		if err != nil {
			svc.logger.Warn("skipping unreadable system profile",
				zap.String("system", name),
				zap.Error(err))
			continue
		}
		if p != nil {
			idx.profiles[strings.ToLower(p.Name)] = p
		}
	}
	return idx, nil
}

// Resolve returns the first system whose name appears in the text, or nil.
func (idx *SystemIndex) Resolve(text string) *SystemProfile {
	lower := strings.ToLower(text)
	for name, p := range idx.profiles {
		if strings.Contains(lower, name) {
			return p
		}
	}
	return nil
}

// DatasetIndex resolves dataset names and aliases appearing in free text.
type DatasetIndex struct {
	profiles map[string]*DatasetProfile // canonical lowercase name -> profile
	aliases  map[string]string          // lowercase alias -> canonical name
}

// NewDatasetIndex builds an index over all dataset profiles in the knowledge
// base. Unreadable profiles are skipped.
func NewDatasetIndex(svc *Service) (*DatasetIndex, error) {
	names, err := listProfiles(filepath.Join(svc.baseDir, datasetDir))
	if err != nil {
		return nil, err
	}
	idx := &DatasetIndex{
		profiles: make(map[string]*DatasetProfile),
		aliases:  make(map[string]string),
	}
	for _, name := range names {
		p, err := svc.LoadDataset(name)
		if err != nil {
			svc.logger.Warn("skipping unreadable dataset profile",
				zap.String("dataset", name),
				zap.Error(err))
			continue
		}
		if p == nil {
			continue
		}
		canonical := strings.ToLower(p.Name)
		idx.profiles[canonical] = p
		idx.aliases[canonical] = canonical
		for _, alias := range p.Aliases {
			idx.aliases[strings.ToLower(alias)] = canonical
		}
	}
	return idx, nil
}

// Resolve finds a dataset by name or alias appearing in free text, or nil.
func (idx *DatasetIndex) Resolve(text string) *DatasetProfile {
	lower := strings.ToLower(text)
	for alias, canonical := range idx.aliases {
		if strings.Contains(lower, alias) {
			return idx.profiles[canonical]
		}
	}
	return nil
}
