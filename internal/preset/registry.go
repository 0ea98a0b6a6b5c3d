// Package preset loads the framework preset catalog. Presets are immutable
// data; nothing in the engine branches on a preset's id.
package preset

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/alexanderramin/arbor/internal/hierarchy"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// MaxCatalogFileSize bounds catalog files read from disk (1MB).
const MaxCatalogFileSize = 1024 * 1024

//go:embed presets.yaml
var defaultCatalogYAML []byte

type catalogYAML struct {
	Presets []presetYAML `yaml:"presets" validate:"required,min=1,dive"`
}

type presetYAML struct {
	ID            string              `yaml:"id" validate:"required"`
	Name          string              `yaml:"name" validate:"required"`
	Description   string              `yaml:"description"`
	ContainerType string              `yaml:"container_type" validate:"required,itemtype"`
	Enabled       []string            `yaml:"enabled" validate:"required,min=1,dive,itemtype"`
	Order         []string            `yaml:"order" validate:"dive,itemtype"`
	Hierarchy     map[string][]string `yaml:"hierarchy" validate:"required,dive,keys,itemtype,endkeys,dive,itemtype"`
	Labels        map[string]string   `yaml:"labels" validate:"dive,keys,itemtype,endkeys,required"`
	Aliases       map[string]string   `yaml:"aliases" validate:"dive,keys,itemtype,endkeys,itemtype"`
}

var catalogValidate *validator.Validate

func init() {
	catalogValidate = validator.New()
	_ = catalogValidate.RegisterValidation("itemtype", func(fl validator.FieldLevel) bool {
		return domain.ItemType(fl.Field().String()).Valid()
	})
}

// Registry holds presets keyed by id.
type Registry struct {
	presets map[string]domain.Preset
	ids     []string
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the registry built from the embedded catalog.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = Parse(defaultCatalogYAML)
	})
	return defaultRegistry, defaultErr
}

// LoadFile parses a catalog file that replaces the embedded one.
func LoadFile(path string) (*Registry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset catalog: %w", err)
	}
	if info.Size() > MaxCatalogFileSize {
		return nil, fmt.Errorf("preset catalog %s is %d bytes, limit is %d", path, info.Size(), MaxCatalogFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Registry, error) {
	var raw catalogYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing preset catalog: %w", err)
	}
	if err := catalogValidate.Struct(raw); err != nil {
		return nil, fmt.Errorf("validating preset catalog: %w", err)
	}

	r := &Registry{presets: make(map[string]domain.Preset, len(raw.Presets))}
	for _, py := range raw.Presets {
		if _, dup := r.presets[py.ID]; dup {
			return nil, fmt.Errorf("preset %q defined twice", py.ID)
		}
		p, err := py.toDomain()
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", py.ID, err)
		}
		r.presets[p.ID] = p
		r.ids = append(r.ids, p.ID)
	}
	return r, nil
}

func (py presetYAML) toDomain() (domain.Preset, error) {
	p := domain.Preset{
		ID:            py.ID,
		Name:          py.Name,
		Description:   py.Description,
		ContainerType: domain.ItemType(py.ContainerType),
		EnabledTypes:  toTypes(py.Enabled),
		Order:         toTypes(py.Order),
		Hierarchy:     make(domain.Hierarchy, len(py.Hierarchy)),
		Labels:        make(map[domain.ItemType]string, len(py.Labels)),
		TypeAliases:   make(map[domain.ItemType]domain.ItemType, len(py.Aliases)),
	}
	for parent, children := range py.Hierarchy {
		p.Hierarchy[domain.ItemType(parent)] = toTypes(children)
	}
	for t, label := range py.Labels {
		p.Labels[domain.ItemType(t)] = label
	}
	for from, to := range py.Aliases {
		p.TypeAliases[domain.ItemType(from)] = domain.ItemType(to)
	}

	if len(p.Order) == 0 {
		p.Order = hierarchy.EnsureValid(domain.HierarchyConfig{EnabledTypes: p.EnabledTypes}).Order
	}
	if err := hierarchy.Validate(p.DefaultConfig("")); err != nil {
		return domain.Preset{}, err
	}
	if !slices.Contains(p.EnabledTypes, p.ContainerType) {
		return domain.Preset{}, fmt.Errorf("container type %q is not enabled", p.ContainerType)
	}
	for from, to := range p.TypeAliases {
		if slices.Contains(p.EnabledTypes, from) {
			return domain.Preset{}, fmt.Errorf("alias source %q is enabled", from)
		}
		if !slices.Contains(p.EnabledTypes, to) {
			return domain.Preset{}, fmt.Errorf("alias target %q is not enabled", to)
		}
	}
	return p, nil
}

func toTypes(ss []string) []domain.ItemType {
	out := make([]domain.ItemType, len(ss))
	for i, s := range ss {
		out[i] = domain.ItemType(s)
	}
	return out
}

// Get returns a copy of the preset registered under id.
func (r *Registry) Get(id string) (domain.Preset, error) {
	p, ok := r.presets[id]
	if !ok {
		return domain.Preset{}, fmt.Errorf("preset %q: %w", id, domain.ErrPresetUnknown)
	}
	return clonePreset(p), nil
}

// List returns every preset in catalog order.
func (r *Registry) List() []domain.Preset {
	out := make([]domain.Preset, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, clonePreset(r.presets[id]))
	}
	return out
}

func clonePreset(p domain.Preset) domain.Preset {
	c := p
	c.EnabledTypes = slices.Clone(p.EnabledTypes)
	c.Order = slices.Clone(p.Order)
	c.Hierarchy = p.Hierarchy.Clone()
	c.Labels = make(map[domain.ItemType]string, len(p.Labels))
	for k, v := range p.Labels {
		c.Labels[k] = v
	}
	c.TypeAliases = make(map[domain.ItemType]domain.ItemType, len(p.TypeAliases))
	for k, v := range p.TypeAliases {
		c.TypeAliases[k] = v
	}
	return c
}
