package domain

import (
	"fmt"
	"sort"

	"github.com/samir-djili/obfuscator/internal/domain/techniques"
	m "github.com/samir-djili/obfuscator/internal/model"
)

// Registry holds the technique descriptors and builds the ordered selection
// for a run. The descriptor set is injectable so conflict handling can be
// exercised without inventing real conflicting techniques.
type Registry interface {
	All() []m.TechniqueDescriptor
	Descriptor(name m.TechniqueName) (m.TechniqueDescriptor, bool)
	Select(cfg m.Config) ([]m.TechniqueName, []m.Diagnostic, error)
}

type registry struct {
	descriptors map[m.TechniqueName]m.TechniqueDescriptor
}

// NewRegistry builds a registry from the given descriptors; with none given
// it uses the default technique set.
func NewRegistry(descriptors ...m.TechniqueDescriptor) Registry {
	if len(descriptors) == 0 {
		descriptors = DefaultDescriptors()
	}

	byName := make(map[m.TechniqueName]m.TechniqueDescriptor, len(descriptors))
	for _, d := range descriptors {
		byName[d.Name] = d
	}

	return &registry{descriptors: byName}
}

// DefaultDescriptors returns the built-in techniques. Priority fixes the
// application order; MinLevel assigns each technique to the cumulative level
// bundles.
func DefaultDescriptors() []m.TechniqueDescriptor {
	return []m.TechniqueDescriptor{
		{Name: m.TechniqueImportIndirection, MinLevel: 3, Priority: 10},
		{Name: m.TechniqueNumericObfuscation, MinLevel: 1, Priority: 20},
		{Name: m.TechniqueStringEncoding, MinLevel: 1, Priority: 30},
		{Name: m.TechniqueIdentifierRenaming, MinLevel: 2, Priority: 40},
		{Name: m.TechniqueDeadCode, MinLevel: 3, Priority: 50},
	}
}

// All returns every descriptor in application order.
func (r *registry) All() []m.TechniqueDescriptor {
	out := make([]m.TechniqueDescriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })

	return out
}

// Descriptor looks up one technique by name.
func (r *registry) Descriptor(name m.TechniqueName) (m.TechniqueDescriptor, bool) {
	d, ok := r.descriptors[name]
	return d, ok
}

// Select resolves the configuration into the ordered technique list for one
// run. An explicit technique list overrides the level bundle. Declared
// conflicts do not reduce the selection here; they pick the drop candidate
// when a validation failure forces the pipeline to reduce the set.
func (r *registry) Select(cfg m.Config) ([]m.TechniqueName, []m.Diagnostic, error) {
	var selected []m.TechniqueDescriptor

	if len(cfg.Techniques) > 0 {
		seen := make(map[m.TechniqueName]struct{}, len(cfg.Techniques))

		for _, name := range cfg.Techniques {
			d, ok := r.descriptors[name]
			if !ok {
				return nil, nil, fmt.Errorf("unknown technique %q", name)
			}

			if _, dup := seen[name]; dup {
				continue
			}

			seen[name] = struct{}{}
			selected = append(selected, d)
		}
	} else {
		if cfg.Level < m.LevelBasic || cfg.Level > m.LevelExpert {
			return nil, nil, fmt.Errorf("level %d out of range [%d, %d]", cfg.Level, m.LevelBasic, m.LevelExpert)
		}

		for _, d := range r.descriptors {
			if d.MinLevel <= cfg.Level {
				selected = append(selected, d)
			}
		}
	}

	sort.Slice(selected, func(i, j int) bool { return selected[i].Priority < selected[j].Priority })

	names := make([]m.TechniqueName, len(selected))
	for i, d := range selected {
		names[i] = d.Name
	}

	return names, nil, nil
}

// passFor maps a technique name to its implementation.
func passFor(name m.TechniqueName) (techniques.Pass, error) {
	switch name {
	case m.TechniqueImportIndirection:
		return techniques.NewImportIndirector(), nil
	case m.TechniqueNumericObfuscation:
		return techniques.NewNumericObfuscator(), nil
	case m.TechniqueStringEncoding:
		return techniques.NewStringEncoder(), nil
	case m.TechniqueIdentifierRenaming:
		return techniques.NewIdentifierRenamer(), nil
	case m.TechniqueDeadCode:
		return techniques.NewDeadCodeInjector(), nil
	default:
		return nil, fmt.Errorf("no implementation for technique %q", name)
	}
}
