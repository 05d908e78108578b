package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/toyz/servicereg/internal/cli"
	"github.com/toyz/servicereg/internal/errors"
)

const clockSource = `package clock

type Clock interface{ Now() int }

//servicereg::service -Lifetime=Singleton
type SystemClock struct{}

func (SystemClock) Now() int { return 0 }

//servicereg::service -Lifetime=Singleton
type FixedClock struct{}

func (FixedClock) Now() int { return 1 }

type Ticker interface{ Tick() int }

//servicereg::service
type Metronome struct{}

func (*Metronome) Tick() int { return 1 }

//servicereg::decorator -Wraps=Metronome
type LoggingTicker struct{ inner Ticker }

func (l *LoggingTicker) Tick() int { return l.inner.Tick() }
`

const preferFixed = `conflicts:
  - contract: clock.Clock
    prefer: clock.FixedClock
`

// inModule runs the test from a fresh module holding the clock package
func inModule(t *testing.T, config string) string {
	t.Helper()
	if testing.Short() {
		t.Skip("loads packages with the go command")
	}
	root := t.TempDir()
	files := map[string]string{
		"go.mod":         "module example.com/app\n\ngo 1.21\n",
		"clock/clock.go": clockSource,
	}
	if config != "" {
		files["servicereg.yaml"] = config
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	t.Chdir(root)
	return root
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	a.plain = true
	err := a.execute(args)
	if err != nil {
		a.reportError(err)
	}
	return stdout.String(), stderr.String(), err
}

func TestHelp(t *testing.T) {
	out, _, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "plan")
	assert.Contains(t, out, "generate")
	assert.Contains(t, out, "clean")
	assert.Contains(t, out, "--module")
}

func TestVerboseAndQuietConflict(t *testing.T) {
	_, _, err := run(t, "plan", "--verbose", "--quiet")
	assert.Error(t, err)
}

func TestPlanCommand(t *testing.T) {
	inModule(t, preferFixed)

	t.Run("text", func(t *testing.T) {
		out, _, err := run(t, "plan", "./...")
		require.NoError(t, err)
		assert.Contains(t, out, "module example.com/app")
		assert.Contains(t, out, "clock.FixedClock")
		assert.NotContains(t, out, "clock.SystemClock")
		assert.Contains(t, out, "accessor-for(clock.Metronome)")
	})

	t.Run("yaml", func(t *testing.T) {
		out, _, err := run(t, "plan", "--format", "yaml")
		require.NoError(t, err)

		var report cli.PlanReport
		require.NoError(t, yaml.Unmarshal([]byte(out), &report))
		require.Len(t, report.Bindings, 4)
		assert.Equal(t, "clock.FixedClock", report.Bindings[0].Implementation)
		assert.Equal(t, "decorator", report.Bindings[1].Role)
		assert.Equal(t, "clock.LoggingTicker", report.Bindings[1].Implementation)
	})

	t.Run("out file", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "plan.yaml")
		out, _, err := run(t, "plan", "-f", "yaml", "-o", target)
		require.NoError(t, err)
		assert.Empty(t, out)

		content, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Contains(t, string(content), "module: example.com/app")
	})

	t.Run("bad format", func(t *testing.T) {
		_, stderr, err := run(t, "plan", "--format", "xml")
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ConfigurationErrorCode))
		assert.Contains(t, stderr, "output.format")
	})
}

func TestPlanReportsConflict(t *testing.T) {
	inModule(t, "")

	_, stderr, err := run(t, "plan")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnresolvedConflict))
	assert.Contains(t, stderr, "UnresolvedConflict")
}

func TestExplicitConfigFile(t *testing.T) {
	root := inModule(t, "")
	path := filepath.Join(root, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(preferFixed), 0644))

	out, _, err := run(t, "--config", path, "plan")
	require.NoError(t, err)
	assert.Contains(t, out, "clock.FixedClock")

	_, _, err = run(t, "--config", filepath.Join(root, "absent.yaml"), "plan")
	assert.True(t, errors.HasCode(err, errors.ConfigurationErrorCode))
}

func TestGenerateAndClean(t *testing.T) {
	root := inModule(t, preferFixed)
	generated := filepath.Join(root, "clock", cli.GeneratedFileName)

	_, _, err := run(t, "generate", "--dir", ".")
	assert.True(t, errors.HasCode(err, errors.GenerationErrorCode))

	_, stderr, err := run(t, "generate", "--dir", "clock", "./...")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Generated")

	content, err := os.ReadFile(generated)
	require.NoError(t, err)
	assert.Contains(t, string(content), "package clock")
	assert.Contains(t, string(content), `Implementation: "example.com/app/clock.FixedClock"`)

	_, stderr, err = run(t, "clean", "./...")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Removed")
	assert.NoFileExists(t, generated)

	_, stderr, err = run(t, "clean")
	require.NoError(t, err)
	assert.Contains(t, stderr, "No generated files found")
}
