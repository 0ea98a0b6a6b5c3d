package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/alexanderramin/arbor/internal/preset"
	"github.com/alexanderramin/arbor/internal/repository"
)

type frameworkService struct {
	presets       *preset.Registry
	settings      repository.FrameworkRepo
	defaultPreset string
}

func NewFrameworkService(presets *preset.Registry, settings repository.FrameworkRepo, defaultPreset string) FrameworkService {
	return &frameworkService{presets: presets, settings: settings, defaultPreset: defaultPreset}
}

// Current returns the preset the company plans under, or the configured
// default when the company never chose one.
func (s *frameworkService) Current(ctx context.Context, companyID string) (domain.Preset, error) {
	id := s.defaultPreset
	fs, err := s.settings.Get(ctx, companyID)
	switch {
	case err == nil:
		id = fs.PresetID
	case !errors.Is(err, repository.ErrNotFound):
		return domain.Preset{}, fmt.Errorf("loading framework of %s: %w", companyID, err)
	}
	return s.presets.Get(id)
}

func (s *frameworkService) Presets() []domain.Preset {
	return s.presets.List()
}

func (s *frameworkService) Preset(id string) (domain.Preset, error) {
	return s.presets.Get(id)
}
