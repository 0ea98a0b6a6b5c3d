package hierarchy

import (
	"fmt"
	"slices"

	"github.com/alexanderramin/arbor/internal/domain"
)

// EnsureValid repairs raw into a structurally valid config:
//  1. unknown and duplicate types are dropped from EnabledTypes; if nothing
//     is left, every canonical type is enabled
//  2. Order keeps its enabled entries in their given order (first occurrence
//     wins), then any enabled type it lacks is appended in canonical order
//
// The result always has a non-empty EnabledTypes and an Order that is a
// permutation of it. EnsureValid is idempotent and never fails.
func EnsureValid(raw domain.HierarchyConfig) domain.HierarchyConfig {
	out := domain.HierarchyConfig{
		ProductID: raw.ProductID,
		UpdatedAt: raw.UpdatedAt,
	}

	enabled := make(map[domain.ItemType]bool)
	for _, t := range raw.EnabledTypes {
		if t.Valid() && !enabled[t] {
			enabled[t] = true
			out.EnabledTypes = append(out.EnabledTypes, t)
		}
	}
	if len(out.EnabledTypes) == 0 {
		out.EnabledTypes = slices.Clone(domain.CanonicalTypes)
		for _, t := range out.EnabledTypes {
			enabled[t] = true
		}
	}

	placed := make(map[domain.ItemType]bool, len(out.EnabledTypes))
	for _, t := range raw.Order {
		if enabled[t] && !placed[t] {
			placed[t] = true
			out.Order = append(out.Order, t)
		}
	}
	for _, t := range domain.CanonicalTypes {
		if enabled[t] && !placed[t] {
			placed[t] = true
			out.Order = append(out.Order, t)
		}
	}
	return out
}

// Validate is the strict check behind the config setter. It rejects an
// empty enabled set, unknown or duplicate types, and any Order that is not
// exactly a permutation of EnabledTypes.
func Validate(cfg domain.HierarchyConfig) error {
	if len(cfg.EnabledTypes) == 0 {
		return fmt.Errorf("no enabled types: %w", domain.ErrConfigInvalid)
	}
	enabled := make(map[domain.ItemType]bool, len(cfg.EnabledTypes))
	for _, t := range cfg.EnabledTypes {
		if !t.Valid() {
			return fmt.Errorf("unknown type %q: %w", t, domain.ErrConfigInvalid)
		}
		if enabled[t] {
			return fmt.Errorf("type %q enabled twice: %w", t, domain.ErrConfigInvalid)
		}
		enabled[t] = true
	}
	if len(cfg.Order) != len(cfg.EnabledTypes) {
		return fmt.Errorf("order has %d entries for %d enabled types: %w",
			len(cfg.Order), len(cfg.EnabledTypes), domain.ErrConfigInvalid)
	}
	seen := make(map[domain.ItemType]bool, len(cfg.Order))
	for _, t := range cfg.Order {
		if !enabled[t] {
			return fmt.Errorf("order lists %q which is not enabled: %w", t, domain.ErrConfigInvalid)
		}
		if seen[t] {
			return fmt.Errorf("order lists %q twice: %w", t, domain.ErrConfigInvalid)
		}
		seen[t] = true
	}
	return nil
}

// Resolve merges a product override onto the preset defaults and repairs
// the result. Empty override fields fall back to the preset's.
func Resolve(preset domain.Preset, productID string, override *domain.HierarchyConfig) domain.HierarchyConfig {
	cfg := preset.DefaultConfig(productID)
	if override != nil {
		if len(override.EnabledTypes) > 0 {
			cfg.EnabledTypes = slices.Clone(override.EnabledTypes)
		}
		if len(override.Order) > 0 {
			cfg.Order = slices.Clone(override.Order)
		}
		cfg.UpdatedAt = override.UpdatedAt
	}
	return EnsureValid(cfg)
}

// Equal compares the structural parts of two configs.
func Equal(a, b domain.HierarchyConfig) bool {
	return a.ProductID == b.ProductID &&
		slices.Equal(a.EnabledTypes, b.EnabledTypes) &&
		slices.Equal(a.Order, b.Order)
}
