// Package catalog loads unit catalogs: YAML documents listing categories and
// their units, validated against an embedded CUE schema before they reach
// the store.
package catalog

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

//go:embed schema.cue
var schemaCUE string

// Document is a unit catalog.
type Document struct {
	Categories []CategoryDef `yaml:"categories" json:"categories"`
}

// CategoryDef declares a category and the units it owns.
type CategoryDef struct {
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Units       []UnitDef `yaml:"units" json:"units"`
}

// UnitDef declares one unit's affine transform to its category base unit.
type UnitDef struct {
	Name   string  `yaml:"name" json:"name"`
	Symbol string  `yaml:"symbol,omitempty" json:"symbol,omitempty"`
	Factor float64 `yaml:"factor" json:"factor"`
	Offset float64 `yaml:"offset,omitempty" json:"offset"`
}

// ValidationError reports a catalog that does not satisfy the schema.
type ValidationError struct {
	Source  string
	Details string
}

func (e *ValidationError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("invalid catalog %s: %s", e.Source, e.Details)
	}
	return fmt.Sprintf("invalid catalog: %s", e.Details)
}

// Default returns the built-in seed catalog.
func Default() *Document {
	doc, err := parse(seedYAML, "seed.yaml")
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return doc
}

// Load reads and validates a catalog file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parse(data, path)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Document, error) {
	return parse(data, "")
}

func parse(data []byte, source string) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ValidationError{Source: source, Details: err.Error()}
	}
	doc.normalize()
	if err := doc.validate(); err != nil {
		err.Source = source
		return nil, err
	}
	return &doc, nil
}

// UnitCount returns the total number of units across all categories.
func (d *Document) UnitCount() int {
	n := 0
	for _, c := range d.Categories {
		n += len(c.Units)
	}
	return n
}

// normalize trims names and applies NFC so lookups match regardless of how
// the catalog author's editor composed accented characters.
func (d *Document) normalize() {
	if d.Categories == nil {
		d.Categories = []CategoryDef{}
	}
	for i := range d.Categories {
		c := &d.Categories[i]
		if c.Units == nil {
			c.Units = []UnitDef{}
		}
		c.Name = norm.NFC.String(strings.TrimSpace(c.Name))
		c.Description = strings.TrimSpace(c.Description)
		for j := range c.Units {
			u := &c.Units[j]
			u.Name = norm.NFC.String(strings.TrimSpace(u.Name))
			u.Symbol = norm.NFC.String(strings.TrimSpace(u.Symbol))
		}
	}
}

// Validate checks the catalog against the CUE schema and the uniqueness rules
// the schema cannot express.
func (d *Document) Validate() error {
	if err := d.validate(); err != nil {
		return err
	}
	return nil
}

func (d *Document) validate() *ValidationError {
	if err := validateSchema(d); err != nil {
		return err
	}

	categories := make(map[string]bool, len(d.Categories))
	for _, c := range d.Categories {
		if categories[c.Name] {
			return &ValidationError{Details: fmt.Sprintf("duplicate category %q", c.Name)}
		}
		categories[c.Name] = true

		units := make(map[string]bool, len(c.Units))
		for _, u := range c.Units {
			if units[u.Name] {
				return &ValidationError{Details: fmt.Sprintf("duplicate unit %q in category %q", u.Name, c.Name)}
			}
			units[u.Name] = true
			if math.IsInf(u.Factor, 0) || math.IsNaN(u.Factor) || math.IsInf(u.Offset, 0) || math.IsNaN(u.Offset) {
				return &ValidationError{Details: fmt.Sprintf("unit %q in category %q has a non-finite transform", u.Name, c.Name)}
			}
		}
	}
	return nil
}

func validateSchema(d *Document) *ValidationError {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Catalog"))
	if err := schema.Err(); err != nil {
		return &ValidationError{Details: fmt.Sprintf("schema: %v", err)}
	}

	v := schema.Unify(ctx.Encode(d))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Details: strings.TrimSpace(cueerrors.Details(err, nil))}
	}
	return nil
}
