package cli

import (
	"strings"

	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/spf13/pflag"
)

// typeValue is a pflag.Value that accepts one canonical item type.
type typeValue struct {
	t *domain.ItemType
}

var _ pflag.Value = typeValue{}

func (v typeValue) String() string {
	if v.t == nil {
		return ""
	}
	return string(*v.t)
}

func (v typeValue) Set(s string) error {
	t, err := domain.ParseItemType(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*v.t = t
	return nil
}

func (typeValue) Type() string { return "type" }

// typeListValue is a comma-separated list of item types. Repeating the
// flag appends.
type typeListValue struct {
	ts *[]domain.ItemType
}

var _ pflag.Value = typeListValue{}

func (v typeListValue) String() string {
	if v.ts == nil {
		return ""
	}
	parts := make([]string, len(*v.ts))
	for i, t := range *v.ts {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

func (v typeListValue) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := domain.ParseItemType(strings.TrimSpace(part))
		if err != nil {
			return err
		}
		*v.ts = append(*v.ts, t)
	}
	return nil
}

func (typeListValue) Type() string { return "types" }

func typeFlag(fs *pflag.FlagSet, p *domain.ItemType, name, usage string) {
	fs.Var(typeValue{t: p}, name, usage)
}

func typeListFlag(fs *pflag.FlagSet, p *[]domain.ItemType, name, usage string) {
	fs.Var(typeListValue{ts: p}, name, usage)
}
