package pollen

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default plant code lists as reported by the Google Pollen API.
var (
	DefaultTreeCodes  = []string{"MAPLE", "ELM", "COTTONWOOD", "ALDER", "BIRCH", "ASH", "PINE", "OAK", "JUNIPER"}
	DefaultGrassCodes = []string{"GRAMINALES"}
	DefaultWeedCodes  = []string{"RAGWEED"}
)

var defaultTaxonomy = MustTaxonomy(DefaultTreeCodes, DefaultGrassCodes, DefaultWeedCodes)

// Taxonomy maps plant codes to pollen categories.
type Taxonomy struct {
	codes map[string]Category
}

// NewTaxonomy builds a taxonomy from the three code lists.
// Returns ErrTaxonomyOverlap if a code appears under two categories.
func NewTaxonomy(tree, grass, weed []string) (*Taxonomy, error) {
	t := &Taxonomy{codes: make(map[string]Category, len(tree)+len(grass)+len(weed))}

	lists := []struct {
		category Category
		codes    []string
	}{
		{CategoryTree, tree},
		{CategoryGrass, grass},
		{CategoryWeed, weed},
	}
	for _, l := range lists {
		for _, code := range l.codes {
			code = strings.TrimSpace(code)
			if code == "" {
				continue
			}
			if existing, ok := t.codes[code]; ok && existing != l.category {
				return nil, fmt.Errorf("%w: %s is both %s and %s", ErrTaxonomyOverlap, code, existing, l.category)
			}
			t.codes[code] = l.category
		}
	}

	return t, nil
}

// MustTaxonomy is like NewTaxonomy but panics on overlap.
func MustTaxonomy(tree, grass, weed []string) *Taxonomy {
	t, err := NewTaxonomy(tree, grass, weed)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultTaxonomy returns the built-in code table.
func DefaultTaxonomy() *Taxonomy {
	return defaultTaxonomy
}

// CategoryOf returns the category for a plant code, or CategoryNone.
func (t *Taxonomy) CategoryOf(code string) Category {
	if c, ok := t.codes[code]; ok {
		return c
	}
	return CategoryNone
}

// Codes returns the codes mapped to a category.
func (t *Taxonomy) Codes(c Category) []string {
	var codes []string
	for code, cat := range t.codes {
		if cat == c {
			codes = append(codes, code)
		}
	}
	return codes
}

// CategoryOf maps a plant code using the default taxonomy.
func CategoryOf(code string) Category {
	return defaultTaxonomy.CategoryOf(code)
}

type taxonomyFile struct {
	Tree  []string `yaml:"tree"`
	Grass []string `yaml:"grass"`
	Weed  []string `yaml:"weed"`
}

// LoadTaxonomy reads a YAML code table with tree, grass and weed lists.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy file: %w", err)
	}
	return ParseTaxonomy(data)
}

// ParseTaxonomy parses a YAML code table.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var f taxonomyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}
	return NewTaxonomy(f.Tree, f.Grass, f.Weed)
}
