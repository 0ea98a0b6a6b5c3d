package domain

import (
	"slices"
	"time"
)

// Hierarchy maps a parent type to the child types it may hold.
type Hierarchy map[ItemType][]ItemType

// Clone returns a deep copy of h.
func (h Hierarchy) Clone() Hierarchy {
	out := make(Hierarchy, len(h))
	for k, v := range h {
		out[k] = slices.Clone(v)
	}
	return out
}

// HierarchyConfig is the enabled-types plus display-order pair of one product.
type HierarchyConfig struct {
	ProductID    string
	EnabledTypes []ItemType
	Order        []ItemType
	UpdatedAt    time.Time
}

// IsEnabled reports whether t is in the enabled set. The tenant root type
// is always enabled.
func (c HierarchyConfig) IsEnabled(t ItemType) bool {
	return t == TenantRootType || slices.Contains(c.EnabledTypes, t)
}

// Preset is an immutable framework definition: which item types exist,
// how they nest, and how the UI names them.
type Preset struct {
	ID            string
	Name          string
	Description   string
	ContainerType ItemType
	EnabledTypes  []ItemType
	Order         []ItemType
	Hierarchy     Hierarchy
	Labels        map[ItemType]string
	TypeAliases   map[ItemType]ItemType
}

// Label returns the display label for t, falling back to the type name.
func (p Preset) Label(t ItemType) string {
	if l, ok := p.Labels[t]; ok && l != "" {
		return l
	}
	return string(t)
}

// DefaultConfig returns the hierarchy config a product gets under this
// preset when it has no override.
func (p Preset) DefaultConfig(productID string) HierarchyConfig {
	return HierarchyConfig{
		ProductID:    productID,
		EnabledTypes: slices.Clone(p.EnabledTypes),
		Order:        slices.Clone(p.Order),
	}
}

// FrameworkSettings records the preset a company currently plans under.
type FrameworkSettings struct {
	CompanyID string
	PresetID  string
	UpdatedAt time.Time
}
