package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/expense-tracker/internal/model"
)

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.qfx", "b.qfx", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600))
	}

	files, err := expandFiles([]string{filepath.Join(dir, "*.qfx"), filepath.Join(dir, "notes.txt")})
	require.NoError(t, err)
	assert.Len(t, files, 3)

	_, err = expandFiles([]string{filepath.Join(dir, "*.ofx")})
	assert.Error(t, err)
}

func TestFormatTarget(t *testing.T) {
	amount := &model.Goal{Kind: model.GoalKindAmount, Limit: 250}
	pct := &model.Goal{Kind: model.GoalKindPercentage, Limit: 12.5}

	assert.Equal(t, "$250.00", formatTarget(amount))
	assert.Equal(t, "12.5% less", formatTarget(pct))
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "trigger", "migrate", "recalc", "goals", "devices", "import-ofx", "version"} {
		assert.True(t, names[want], want)
	}
}
