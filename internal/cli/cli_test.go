package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-assurance/internal/config"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
)

var artifacts = []string{
	"../application/analysis/testdata/Business_Case_v2.txt",
	"../application/analysis/testdata/Project_Budget_Sheet.csv",
	"../application/analysis/testdata/Solution_Architecture_Draft.txt",
}

func offlineConfig() *config.Config {
	cfg := &config.Config{}
	cfg.AI.Provider = "offline"
	cfg.AI.MaxTokens = 4096
	return cfg
}

func analyzeSample(t *testing.T) []byte {
	t.Helper()
	var out bytes.Buffer
	err := runAnalyze(context.Background(), offlineConfig(), zap.NewNop(), analyzeOptions{
		Name:       "Payroll Modernisation",
		Number:     "PRJ-042",
		FocusAreas: []string{string(assurance.FocusBudget), string(assurance.FocusArchitecture)},
		Out:        "-",
		Files:      artifacts,
	}, &out)
	require.NoError(t, err)
	return out.Bytes()
}

func TestAnalyze_WritesResult(t *testing.T) {
	var res Result
	require.NoError(t, json.Unmarshal(analyzeSample(t), &res))

	assert.Equal(t, "Payroll Modernisation", res.ProjectName)
	assert.Equal(t, "PRJ-042", res.ProjectNumber)
	assert.Equal(t, string(assurance.StageInitiation), res.ProjectStage)
	require.Len(t, res.Documents, 3)
	assert.Equal(t, assurance.CategoryBusinessCase, res.Documents[0].Category)
	assert.Equal(t, assurance.CategoryBudget, res.Documents[1].Category)
	assert.Equal(t, assurance.CategoryArchitecture, res.Documents[2].Category)
	assert.NotEmpty(t, res.Report.Summary)
}

func TestAnalyze_Errors(t *testing.T) {
	ctx := context.Background()

	err := runAnalyze(ctx, offlineConfig(), zap.NewNop(), analyzeOptions{
		Name: "X", Number: "1", FocusAreas: []string{string(assurance.FocusBudget)},
		Files: []string{"testdata/missing.txt"},
	}, &bytes.Buffer{})
	assert.Error(t, err)

	err = runAnalyze(ctx, offlineConfig(), zap.NewNop(), analyzeOptions{
		Name: "X", Number: "1", FocusAreas: []string{string(assurance.FocusBudget)},
		Provider: "bard", Files: artifacts,
	}, &bytes.Buffer{})
	assert.ErrorContains(t, err, `unknown ai provider "bard"`)

	err = runAnalyze(ctx, offlineConfig(), zap.NewNop(), analyzeOptions{
		Name: "X", Number: "1", Stage: "Someday", Files: artifacts,
	}, &bytes.Buffer{})
	var verr *assurance.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestExport(t *testing.T) {
	result := analyzeSample(t)
	ctx := context.Background()

	t.Run("xlsx to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.xlsx")
		err := runExport(ctx, offlineConfig(), zap.NewNop(), exportOptions{In: "-", Format: "xlsx", Out: path},
			bytes.NewReader(result), &bytes.Buffer{})
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "PK", string(data[:2]))
	})

	t.Run("html to stdout", func(t *testing.T) {
		var out bytes.Buffer
		err := runExport(ctx, offlineConfig(), zap.NewNop(), exportOptions{In: "-", Format: "HTML", Mode: "professional", Out: "-"},
			bytes.NewReader(result), &out)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(strings.TrimSpace(out.String()), "<!DOCTYPE html>"))
		assert.Contains(t, out.String(), "Payroll Modernisation")
	})

	t.Run("unknown format", func(t *testing.T) {
		err := runExport(ctx, offlineConfig(), zap.NewNop(), exportOptions{In: "-", Format: "docx", Out: "-"},
			bytes.NewReader(result), &bytes.Buffer{})
		assert.ErrorContains(t, err, `unknown format "docx"`)
	})

	t.Run("bad input", func(t *testing.T) {
		err := runExport(ctx, offlineConfig(), zap.NewNop(), exportOptions{In: "-", Format: "xlsx", Out: "-"},
			strings.NewReader("{"), &bytes.Buffer{})
		assert.ErrorContains(t, err, "decode result")
	})
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range RootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["migrate"])
	assert.True(t, names["analyze"])
	assert.True(t, names["export"])
}
