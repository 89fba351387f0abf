// Package catalog holds the static, ordered grouping of known property fields.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// DescriptionField is rendered on its own, outside of any group.
const DescriptionField = "description"

//go:embed groups.yaml
var groupsYAML []byte

// Group is a labelled, ordered list of field names.
type Group struct {
	Label  string   `yaml:"label"`
	Fields []string `yaml:"fields"`
}

type document struct {
	Groups []Group `yaml:"groups"`
}

var (
	loadOnce sync.Once
	groups   []Group
	loadErr  error
)

// Parse decodes a catalog document. Groups without a label or fields, and
// fields listed twice, are rejected.
func Parse(data []byte) ([]Group, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if len(doc.Groups) == 0 {
		return nil, errors.New("catalog has no groups")
	}

	seen := make(map[string]string)
	for _, g := range doc.Groups {
		if g.Label == "" {
			return nil, errors.New("catalog group without label")
		}
		if len(g.Fields) == 0 {
			return nil, fmt.Errorf("catalog group %q has no fields", g.Label)
		}
		for _, f := range g.Fields {
			if prev, dup := seen[f]; dup {
				return nil, fmt.Errorf("field %q listed in both %q and %q", f, prev, g.Label)
			}
			seen[f] = g.Label
		}
	}
	return doc.Groups, nil
}

func load() {
	groups, loadErr = Parse(groupsYAML)
}

// Groups returns a copy of the built-in catalog in display order.
// The embedded document is validated by tests, so a decode failure panics.
func Groups() []Group {
	loadOnce.Do(load)
	if loadErr != nil {
		panic(loadErr)
	}

	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = Group{Label: g.Label, Fields: append([]string(nil), g.Fields...)}
	}
	return out
}

// GroupOf returns the label of the group that lists field. Fields with no
// group are left out of the grouped view.
func GroupOf(field string) (string, bool) {
	for _, g := range Groups() {
		for _, f := range g.Fields {
			if f == field {
				return g.Label, true
			}
		}
	}
	return "", false
}
