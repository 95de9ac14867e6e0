package cmd

import (
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/formscan/internal/testutil"
)

func TestBatchCommand_CSV(t *testing.T) {
	dir := isolate(t)
	docs := filepath.Join(dir, "docs")
	testutil.WriteFile(t, docs, "a.json", formTokens)
	testutil.WriteFile(t, docs, "b.json", formTokens)

	out, _, err := execute(t, "batch", docs, "--format", "csv", "--workers", "2", "--no-vision", "--quiet")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)
	assert.Equal(t, []string{"file", "section", "question", "option", "answer"}, rows[0])

	var answers []string
	for _, row := range rows[1:] {
		assert.Equal(t, "PATIENT DETAILS", row[1])
		answers = append(answers, row[4])
	}
	assert.Contains(t, answers, "Jane Brown")
}

func TestBatchCommand_OutputDir(t *testing.T) {
	dir := isolate(t)
	docs := filepath.Join(dir, "docs")
	testutil.WriteFile(t, docs, "a.json", formTokens)
	outDir := filepath.Join(dir, "out")

	out, _, err := execute(t, "batch", docs, "--output-dir", outDir, "--format", "yaml", "--quiet")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.True(t, testutil.FileExists(filepath.Join(outDir, "a.yaml")))
}

func TestBatchCommand_Errors(t *testing.T) {
	dir := isolate(t)

	_, _, err := execute(t, "batch")
	require.Error(t, err)

	_, _, err = execute(t, "batch", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no documents found")

	testutil.WriteFile(t, dir, "a.json", formTokens)
	_, _, err = execute(t, "batch", dir, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
}

func TestConfigToBatchConfig_FlagsWin(t *testing.T) {
	isolate(t)
	cmd := newBatchCmd()
	require.NoError(t, cmd.ParseFlags([]string{"-w", "3", "--fail-fast", "--threshold", "0.9", "--image-ext", "png"}))

	bc := configToBatchConfig(GetConfig(), cmd)
	assert.Equal(t, 3, bc.Workers)
	assert.False(t, bc.ContinueOnError)
	assert.InDelta(t, 0.9, bc.Pipeline.Threshold, 1e-9)
	assert.Equal(t, []string{"png"}, bc.ImageExtensions)
	assert.Equal(t, "json", bc.Format)
}
