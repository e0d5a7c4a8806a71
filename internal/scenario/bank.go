package scenario

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed bank/*.yaml
var defaultBankFS embed.FS

//go:embed schema.json
var bankSchemaJSON []byte

// ErrNotFound is returned when a scenario id is not in the bank.
var ErrNotFound = errors.New("scenario not found")

// BankError describes a scenario bank file that failed to load.
type BankError struct {
	File string
	Err  error
}

func (e *BankError) Error() string {
	return fmt.Sprintf("scenario bank %s: %v", e.File, e.Err)
}

func (e *BankError) Unwrap() error { return e.Err }

// Bank is an immutable, ordered collection of scenario templates.
type Bank struct {
	templates map[string]*Template
	order     []string
}

type bankFile struct {
	Scenarios []templateDoc `yaml:"scenarios"`
}

type templateDoc struct {
	ID          string      `yaml:"id"`
	Kind        string      `yaml:"kind"`
	Title       string      `yaml:"title"`
	Difficulty  string      `yaml:"difficulty"`
	Narrative   string      `yaml:"narrative"`
	Hint        string      `yaml:"hint"`
	TimeLimit   int         `yaml:"time_limit"`
	MaxAttempts int         `yaml:"max_attempts"`
	Pools       poolsDoc    `yaml:"pools"`
	Requires    requiresDoc `yaml:"requires"`
	Actions     []actionDoc `yaml:"actions"`
	Optimal     []string    `yaml:"optimal"`
}

type poolsDoc struct {
	Pins    []string `yaml:"pins"`
	Sensors []string `yaml:"sensors"`
	Range   *struct {
		Min float64 `yaml:"min"`
		Max float64 `yaml:"max"`
	} `yaml:"range"`
}

type requiresDoc struct {
	Edges [][]string `yaml:"edges"`
	Range *struct {
		Low  float64 `yaml:"low"`
		High float64 `yaml:"high"`
	} `yaml:"range"`
	Pin          string  `yaml:"pin"`
	Sensor       string  `yaml:"sensor"`
	Controller   bool    `yaml:"controller"`
	MinVolts     float64 `yaml:"min_volts"`
	MinMilliAmps float64 `yaml:"min_milliamps"`
}

type actionDoc struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
	compiledSchemaOnce sync.Once
)

func bankSchema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(bankSchemaJSON))
		if err != nil {
			compiledSchemaErr = fmt.Errorf("parse bank schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const url = "schema://scenario-bank.json"
		if err := c.AddResource(url, doc); err != nil {
			compiledSchemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = c.Compile(url)
	})
	return compiledSchema, compiledSchemaErr
}

// Default returns the bank embedded in the binary.
func Default() (*Bank, error) {
	sub, err := fs.Sub(defaultBankFS, "bank")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub)
}

// LoadDir loads every *.yaml and *.yml file in dir.
func LoadDir(dir string) (*Bank, error) {
	slog.Info("loading scenario bank", "dir", dir)
	return LoadFS(os.DirFS(dir))
}

// LoadFS loads every *.yaml and *.yml file at the root of fsys.
func LoadFS(fsys fs.FS) (*Bank, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := fs.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	b := &Bank{templates: make(map[string]*Template)}
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, &BankError{File: name, Err: err}
		}
		templates, err := parseBankFile(data)
		if err != nil {
			return nil, &BankError{File: name, Err: err}
		}
		for _, t := range templates {
			if _, dup := b.templates[t.ID]; dup {
				return nil, &BankError{File: name, Err: fmt.Errorf("duplicate scenario id %q", t.ID)}
			}
			b.templates[t.ID] = t
			b.order = append(b.order, t.ID)
		}
	}
	return b, nil
}

// Parse loads a bank from a single YAML document.
func Parse(data []byte) (*Bank, error) {
	templates, err := parseBankFile(data)
	if err != nil {
		return nil, err
	}
	b := &Bank{templates: make(map[string]*Template)}
	for _, t := range templates {
		if _, dup := b.templates[t.ID]; dup {
			return nil, fmt.Errorf("duplicate scenario id %q", t.ID)
		}
		b.templates[t.ID] = t
		b.order = append(b.order, t.ID)
	}
	return b, nil
}

func parseBankFile(data []byte) ([]*Template, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	// Round-trip through JSON so the validator sees plain JSON types.
	js, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert yaml: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(js))
	if err != nil {
		return nil, fmt.Errorf("convert yaml: %w", err)
	}
	sch, err := bankSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var doc bankFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode scenarios: %w", err)
	}
	out := make([]*Template, 0, len(doc.Scenarios))
	for _, d := range doc.Scenarios {
		t, err := d.toTemplate()
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", d.ID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (d templateDoc) toTemplate() (*Template, error) {
	narrative, err := ParseNarrative(strings.TrimSpace(d.Narrative))
	if err != nil {
		return nil, fmt.Errorf("narrative: %w", err)
	}
	hint, err := ParseNarrative(strings.TrimSpace(d.Hint))
	if err != nil {
		return nil, fmt.Errorf("hint: %w", err)
	}

	t := &Template{
		ID:          d.ID,
		Kind:        Kind(d.Kind),
		Title:       d.Title,
		Difficulty:  Difficulty(d.Difficulty),
		Narrative:   narrative,
		Hint:        hint,
		TimeLimit:   d.TimeLimit,
		MaxAttempts: d.MaxAttempts,
		Pools: Pools{
			Pins:    d.Pools.Pins,
			Sensors: d.Pools.Sensors,
		},
		Requirements: Requirements{
			Pin:               d.Requires.Pin,
			Sensor:            d.Requires.Sensor,
			RequireController: d.Requires.Controller,
			MinVolts:          d.Requires.MinVolts,
			MinMilliAmps:      d.Requires.MinMilliAmps,
		},
		OptimalSequence: d.Optimal,
	}
	if r := d.Pools.Range; r != nil {
		if r.Min > r.Max {
			return nil, fmt.Errorf("range pool min %v exceeds max %v", r.Min, r.Max)
		}
		t.Pools.Range = &RangePool{Min: r.Min, Max: r.Max}
	}
	if r := d.Requires.Range; r != nil {
		if r.Low > r.High {
			return nil, fmt.Errorf("accepted range low %v exceeds high %v", r.Low, r.High)
		}
		t.Requirements.Range = &Interval{Low: r.Low, High: r.High}
	}
	for _, e := range d.Requires.Edges {
		t.Requirements.Edges = append(t.Requirements.Edges, EdgeRequirement{
			A: ComponentType(e[0]),
			B: ComponentType(e[1]),
		})
	}
	for _, a := range d.Actions {
		t.Actions = append(t.Actions, Action{ID: a.ID, Label: a.Label})
	}

	if t.Kind == KindCrisis {
		if err := checkCrisis(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func checkCrisis(t *Template) error {
	if len(t.OptimalSequence) == 0 {
		return errors.New("crisis scenario needs an optimal sequence")
	}
	ids := make(map[string]bool, len(t.Actions))
	for _, a := range t.Actions {
		if ids[a.ID] {
			return fmt.Errorf("duplicate action id %q", a.ID)
		}
		ids[a.ID] = true
	}
	seen := make(map[string]bool, len(t.OptimalSequence))
	for _, id := range t.OptimalSequence {
		if !ids[id] {
			return fmt.Errorf("optimal sequence references unknown action %q", id)
		}
		if seen[id] {
			return fmt.Errorf("action %q appears twice in the optimal sequence", id)
		}
		seen[id] = true
	}
	return nil
}

// Get returns the template with the given id.
func (b *Bank) Get(id string) (*Template, error) {
	t, ok := b.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}

// List returns templates of the given kind in load order. An empty kind
// returns every template.
func (b *Bank) List(kind Kind) []*Template {
	var out []*Template
	for _, id := range b.order {
		t := b.templates[id]
		if kind == "" || t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// Next returns the template following id among templates of the same kind,
// wrapping to the first.
func (b *Bank) Next(id string) (*Template, error) {
	cur, err := b.Get(id)
	if err != nil {
		return nil, err
	}
	same := b.List(cur.Kind)
	i := slices.IndexFunc(same, func(t *Template) bool { return t.ID == id })
	return same[(i+1)%len(same)], nil
}

// Len returns the number of templates in the bank.
func (b *Bank) Len() int {
	return len(b.order)
}

// BankDir is a helper for callers that accept either a directory or the
// embedded default.
func BankDir(dir string) (*Bank, error) {
	if dir == "" {
		return Default()
	}
	if _, err := os.Stat(filepath.Clean(dir)); err != nil {
		return nil, fmt.Errorf("scenario bank dir: %w", err)
	}
	return LoadDir(dir)
}
