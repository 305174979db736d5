// Package casespec loads and validates immutable case definitions.
// A case file supplies everything a session needs at creation time:
// the candidate-facing opening, hidden facts, and the ordered unit
// sequence with per-unit rubrics and expected evidence keywords.
package casespec

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// #region types

// Rubric maps score levels 1-5 to their descriptions. It carries a
// custom YAML decoder because JSON case files quote their keys, which
// the yaml decoder would otherwise refuse to read as integers.
type Rubric map[int]string

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Rubric) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("rubric must be a mapping")
	}
	m := make(map[int]string, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		level, err := strconv.Atoi(value.Content[i].Value)
		if err != nil {
			return fmt.Errorf("rubric level %q is not an integer", value.Content[i].Value)
		}
		m[level] = value.Content[i+1].Value
	}
	*r = m
	return nil
}

// Unit is one rubric-scored question in a case's ordered sequence.
type Unit struct {
	ID       string   `yaml:"id" json:"id"`
	Phase    string   `yaml:"phase" json:"phase"`
	Prompt   string   `yaml:"prompt" json:"prompt"`
	Rubric   Rubric   `yaml:"rubric" json:"rubric"`
	Evidence []string `yaml:"evidence" json:"evidence"`

	// Optional payloads the assessor may surface to the interviewer.
	Hint       string `yaml:"hint,omitempty" json:"hint,omitempty"`
	Complexity string `yaml:"complexity,omitempty" json:"complexity,omitempty"`
	DataReveal string `yaml:"data_reveal,omitempty" json:"data_reveal,omitempty"`
}

// Constraints holds the hard session limits declared by a case.
// Zero values fall back to controller defaults.
type Constraints struct {
	MaxDurationMinutes int `yaml:"max_duration_minutes" json:"max_duration_minutes"`
	MaxExchanges       int `yaml:"max_exchanges" json:"max_exchanges"`
}

// Case is a complete immutable case definition.
type Case struct {
	ID      string `yaml:"id" json:"id"`
	Title   string `yaml:"title" json:"title"`
	Opening string `yaml:"opening" json:"opening"`

	// Facts are hidden reference material for the assessor; they are
	// revealed to the candidate only through data-reveal payloads.
	Facts     map[string]string `yaml:"facts" json:"facts"`
	RootCause string            `yaml:"root_cause,omitempty" json:"root_cause,omitempty"`

	Units       []Unit      `yaml:"units" json:"units"`
	Constraints Constraints `yaml:"constraints" json:"constraints"`

	// StartingDifficulty seeds the session's adaptive level. 0 means
	// the default baseline of 3.
	StartingDifficulty int `yaml:"starting_difficulty,omitempty" json:"starting_difficulty,omitempty"`
}

// #endregion types

// #region validate

// Validate checks the structural requirements of a case definition.
// A case that fails validation must never reach a live session.
func (c *Case) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("case: missing id")
	}
	if c.Opening == "" {
		return fmt.Errorf("case %s: missing opening", c.ID)
	}
	if len(c.Units) == 0 {
		return fmt.Errorf("case %s: no units", c.ID)
	}
	if c.StartingDifficulty < 0 || c.StartingDifficulty > 5 {
		return fmt.Errorf("case %s: starting_difficulty %d out of range", c.ID, c.StartingDifficulty)
	}
	seen := make(map[string]bool, len(c.Units))
	for i, u := range c.Units {
		if u.ID == "" {
			return fmt.Errorf("case %s: unit %d missing id", c.ID, i)
		}
		if seen[u.ID] {
			return fmt.Errorf("case %s: duplicate unit id %q", c.ID, u.ID)
		}
		seen[u.ID] = true
		if u.Phase == "" {
			return fmt.Errorf("case %s: unit %s missing phase", c.ID, u.ID)
		}
		if u.Prompt == "" {
			return fmt.Errorf("case %s: unit %s missing prompt", c.ID, u.ID)
		}
		for level := 1; level <= 5; level++ {
			if strings.TrimSpace(u.Rubric[level]) == "" {
				return fmt.Errorf("case %s: unit %s rubric missing level %d", c.ID, u.ID, level)
			}
		}
	}
	return nil
}

// #endregion validate

// #region load

// Load reads and validates a single case file. YAML and JSON are both
// accepted; JSON case files parse as a YAML subset.
func Load(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case %s: %w", path, err)
	}
	var c Case
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse case %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// #endregion load

// #region library

// Library resolves case ids against a directory of case files.
type Library struct {
	dir string
}

// NewLibrary creates a library rooted at dir.
func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

// Get loads the case with the given id, trying .yaml, .yml, then .json.
func (l *Library) Get(id string) (*Case, error) {
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		path := filepath.Join(l.dir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return nil, fmt.Errorf("case not found: %s", id)
}

// List returns the available case ids, sorted.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		switch ext {
		case ".yaml", ".yml", ".json":
			ids = append(ids, strings.TrimSuffix(name, ext))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// #endregion library
