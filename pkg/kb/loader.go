package kb

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Knowledge base directory layout under the base dir:
//
//	system/<name>.yaml
//	site/<name>.yaml
//	schedulers/<name>.yaml
//	datasets/<name>.yaml
//	applications/<name>.yaml
const (
	systemDir    = "system"
	siteDir      = "site"
	schedulerDir = "schedulers"
	datasetDir   = "datasets"
	recipeDir    = "applications"
)

// InvalidProfileError reports a knowledge base file that exists but does not
// decode into its schema. Callers are expected to degrade (treat the profile
// as absent, or synthesize a minimal default) rather than abort.
type InvalidProfileError struct {
	Path   string
	Issues []string
}

func (e *InvalidProfileError) Error() string {
	return fmt.Sprintf("invalid knowledge base file %s: %s", e.Path, strings.Join(e.Issues, "; "))
}

// Service provides centralized access to knowledge base files with
// consistent logging.
type Service struct {
	baseDir string
	logger  *zap.Logger
}

// NewService creates a knowledge base service rooted at baseDir.
func NewService(baseDir string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{baseDir: baseDir, logger: logger}
}

// BaseDir returns the knowledge base root directory.
func (s *Service) BaseDir() string { return s.baseDir }

// load reads and strictly decodes one YAML file. A missing file yields
// (false, nil); a present but invalid file yields an InvalidProfileError.
func (s *Service) load(kind, name string, out any) (bool, error) {
	path := filepath.Join(s.baseDir, kind, name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read knowledge base file: %w", err)
	}
	s.logger.Debug("loading knowledge base file",
		zap.String("kind", kind),
		zap.String("name", name),
		zap.String("path", path))

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return false, &InvalidProfileError{Path: path, Issues: []string{err.Error()}}
	}
	return true, nil
}

// LoadSystem returns the named system profile, or (nil, nil) if absent.
func (s *Service) LoadSystem(name string) (*SystemProfile, error) {
	var p SystemProfile
	ok, err := s.load(systemDir, name, &p)
	if !ok || err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadSite returns the named site profile, or (nil, nil) if absent.
func (s *Service) LoadSite(name string) (*SiteProfile, error) {
	var p SiteProfile
	ok, err := s.load(siteDir, name, &p)
	if !ok || err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadScheduler returns the named scheduler profile, or (nil, nil) if absent.
func (s *Service) LoadScheduler(name string) (*SchedulerProfile, error) {
	var p SchedulerProfile
	ok, err := s.load(schedulerDir, name, &p)
	if !ok || err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadDataset returns the named dataset profile, or (nil, nil) if absent.
func (s *Service) LoadDataset(name string) (*DatasetProfile, error) {
	var p DatasetProfile
	ok, err := s.load(datasetDir, name, &p)
	if !ok || err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadRecipe returns the named application recipe, or (nil, nil) if absent.
func (s *Service) LoadRecipe(name string) (*Recipe, error) {
	var r Recipe
	ok, err := s.load(recipeDir, name, &r)
	if !ok || err != nil {
		return nil, err
	}
	return &r, nil
}

// FindSiteForSystem scans site profiles for the one that lists the given
// system. Returns (nil, nil) when no site claims it.
func (s *Service) FindSiteForSystem(systemName string) (*SiteProfile, error) {
	names, err := listProfiles(filepath.Join(s.baseDir, siteDir))
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		site, err := s.LoadSite(name)
		if err != nil {
			s.logger.Warn("skipping unreadable site profile",
				zap.String("site", name),
				zap.Error(err))
			continue
		}
		for _, sys := range site.Systems {
			if strings.EqualFold(sys, systemName) {
				return site, nil
			}
		}
	}
	return nil, nil
}
