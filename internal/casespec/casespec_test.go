package casespec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// #region fixtures

const validCaseYAML = `
id: acme-profit
title: Acme profitability decline
opening: Our client Acme has seen profits fall 20% in two years.
facts:
  revenue: flat at $500M
  cogs: up 12%
root_cause: input cost inflation in the core product line
units:
  - id: structure
    phase: STRUCTURING
    prompt: How would you structure this problem?
    rubric:
      1: no structure
      2: partial structure
      3: adequate framework
      4: mece framework
      5: mece framework tailored to the case
    evidence: [revenue, cost]
    hint: Think about both sides of the profit equation.
  - id: drivers
    phase: ANALYSIS
    prompt: Which driver would you investigate first?
    rubric:
      1: none
      2: vague
      3: one driver
      4: ranked drivers
      5: ranked and justified
constraints:
  max_duration_minutes: 25
  max_exchanges: 8
starting_difficulty: 2
`

func writeCase(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// #endregion fixtures

// #region load-tests

func TestLoad_ValidYAML(t *testing.T) {
	c, err := Load(writeCase(t, "acme.yaml", validCaseYAML))
	require.NoError(t, err)

	assert.Equal(t, "acme-profit", c.ID)
	assert.Len(t, c.Units, 2)
	assert.Equal(t, "STRUCTURING", c.Units[0].Phase)
	assert.Equal(t, "mece framework", c.Units[0].Rubric[4])
	assert.Equal(t, []string{"revenue", "cost"}, c.Units[0].Evidence)
	assert.Equal(t, 25, c.Constraints.MaxDurationMinutes)
	assert.Equal(t, 2, c.StartingDifficulty)
}

func TestLoad_JSONParsesAsYAMLSubset(t *testing.T) {
	jsonCase := `{
  "id": "mini",
  "opening": "A small case.",
  "units": [
    {"id": "u1", "phase": "ANALYSIS", "prompt": "Why?",
     "rubric": {"1": "a", "2": "b", "3": "c", "4": "d", "5": "e"}}
  ]
}`
	c, err := Load(writeCase(t, "mini.json", jsonCase))
	require.NoError(t, err)
	assert.Equal(t, "mini", c.ID)
	assert.Equal(t, "c", c.Units[0].Rubric[3])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

// #endregion load-tests

// #region validate-tests

func TestValidate_Failures(t *testing.T) {
	base := func() *Case {
		c, err := Load(writeCase(t, "base.yaml", validCaseYAML))
		require.NoError(t, err)
		return c
	}

	cases := []struct {
		name   string
		mutate func(*Case)
	}{
		{"missing id", func(c *Case) { c.ID = "" }},
		{"missing opening", func(c *Case) { c.Opening = "" }},
		{"no units", func(c *Case) { c.Units = nil }},
		{"duplicate unit ids", func(c *Case) { c.Units[1].ID = c.Units[0].ID }},
		{"unit missing prompt", func(c *Case) { c.Units[0].Prompt = "" }},
		{"unit missing phase", func(c *Case) { c.Units[1].Phase = "" }},
		{"incomplete rubric", func(c *Case) { delete(c.Units[0].Rubric, 3) }},
		{"blank rubric level", func(c *Case) { c.Units[0].Rubric[5] = "  " }},
		{"difficulty out of range", func(c *Case) { c.StartingDifficulty = 7 }},
	}
	for _, tc := range cases {
		c := base()
		tc.mutate(c)
		assert.Error(t, c.Validate(), tc.name)
	}
}

// #endregion validate-tests

// #region library-tests

func TestLibrary_GetAndList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme-profit.yaml"), []byte(validCaseYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a case"), 0o644))

	lib := NewLibrary(dir)

	c, err := lib.Get("acme-profit")
	require.NoError(t, err)
	assert.Equal(t, "acme-profit", c.ID)

	_, err = lib.Get("no-such-case")
	require.Error(t, err)

	ids, err := lib.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"acme-profit"}, ids)
}

// #endregion library-tests
