// Package hierarchy answers "which values can follow this one" for the
// country > province > district location selects.
package hierarchy

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Level is one tier of the location hierarchy.
type Level int

const (
	LevelCountry Level = iota
	LevelProvince
	LevelDistrict
)

func (l Level) String() string {
	switch l {
	case LevelCountry:
		return "country"
	case LevelProvince:
		return "province"
	case LevelDistrict:
		return "district"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

//go:embed nepal.yaml
var defaultData []byte

type document struct {
	Countries []countryNode `yaml:"countries"`
}

type countryNode struct {
	Name      string         `yaml:"name"`
	Provinces []provinceNode `yaml:"provinces"`
}

type provinceNode struct {
	Name      string   `yaml:"name"`
	Districts []string `yaml:"districts"`
}

// Hierarchy is an immutable, ordered location tree.
type Hierarchy struct {
	countries []string
	provinces map[string][]string // country -> provinces
	districts map[string][]string // province -> districts
}

// Parse builds a Hierarchy from its YAML form.
func Parse(data []byte) (*Hierarchy, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse location hierarchy: %w", err)
	}

	h := &Hierarchy{
		provinces: make(map[string][]string),
		districts: make(map[string][]string),
	}
	for _, c := range doc.Countries {
		if c.Name == "" {
			return nil, fmt.Errorf("parse location hierarchy: country without name")
		}
		if _, dup := h.provinces[c.Name]; dup {
			return nil, fmt.Errorf("parse location hierarchy: duplicate country %q", c.Name)
		}
		h.countries = append(h.countries, c.Name)
		provinces := make([]string, 0, len(c.Provinces))
		for _, p := range c.Provinces {
			if _, dup := h.districts[p.Name]; dup {
				return nil, fmt.Errorf("parse location hierarchy: province %q listed twice", p.Name)
			}
			provinces = append(provinces, p.Name)
			h.districts[p.Name] = append([]string(nil), p.Districts...)
		}
		h.provinces[c.Name] = provinces
	}
	return h, nil
}

// LoadFile reads a hierarchy from a YAML file.
func LoadFile(path string) (*Hierarchy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read location hierarchy: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in hierarchy.
func Default() *Hierarchy {
	h, err := Parse(defaultData)
	if err != nil {
		panic(err)
	}
	return h
}

// ChildrenOf lists the values selectable at level given the selected value
// of the level above. parent is ignored for LevelCountry. Unknown parents
// have no children. The returned slice is a copy.
func (h *Hierarchy) ChildrenOf(level Level, parent string) []string {
	var src []string
	switch level {
	case LevelCountry:
		src = h.countries
	case LevelProvince:
		src = h.provinces[parent]
	case LevelDistrict:
		src = h.districts[parent]
	}
	return append([]string{}, src...)
}

// Contains reports whether child is listed under parent at level.
func (h *Hierarchy) Contains(level Level, parent, child string) bool {
	for _, v := range h.ChildrenOf(level, parent) {
		if v == child {
			return true
		}
	}
	return false
}

// HasChildren reports whether the hierarchy goes below parent at level, e.g.
// whether a country has provinces at all.
func (h *Hierarchy) HasChildren(level Level, parent string) bool {
	return len(h.ChildrenOf(level, parent)) > 0
}
