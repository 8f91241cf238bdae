package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(t.TempDir(), "elsewhere.csv")

	paths, err := GetPaths(PathsConfig{
		BaseDir:    base,
		DataFile:   abs,
		FiguresDir: "figures",
		ReportsDir: "out/reports",
		LogsDir:    "logs",
	})
	require.NoError(t, err)

	assert.Equal(t, base, paths.BaseDir)
	assert.Equal(t, abs, paths.DataFile, "absolute paths are kept")
	assert.Equal(t, filepath.Join(base, "figures"), paths.FiguresDir)
	assert.Equal(t, filepath.Join(base, "out", "reports"), paths.ReportsDir)
	assert.Equal(t, filepath.Join(base, "figures", "mortality_trend.png"), paths.GetFigurePath(MortalityTrendFile))
	assert.Equal(t, filepath.Join(base, "figures", "gdp_per_capita_2023.png"), paths.GetGDPChartPath(2023))
	assert.Equal(t, filepath.Join(base, "out", "reports", "x.csv"), paths.GetReportPath("x.csv"))
}

func TestGetPathsDefaultsToWorkingDir(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	paths, err := GetPaths(Default().Paths)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "data", "data.csv"), paths.DataFile)
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths, err := GetPaths(PathsConfig{
		BaseDir:    base,
		DataFile:   "data.csv",
		FiguresDir: "figures",
		ReportsDir: "reports",
		LogsDir:    "logs",
	})
	require.NoError(t, err)

	require.NoError(t, paths.EnsureDirectories(nil))
	assert.DirExists(t, paths.ReportsDir)
	assert.DirExists(t, paths.LogsDir)
	assert.NoDirExists(t, paths.FiguresDir)

	require.NoError(t, paths.EnsureDirectories(nil, paths.FiguresDir))
	assert.DirExists(t, paths.FiguresDir)
	assert.True(t, FileExists(paths.FiguresDir))
	assert.False(t, FileExists(filepath.Join(base, "missing")))
}
