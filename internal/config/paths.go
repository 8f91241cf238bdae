package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// Relative entries in PathsConfig are resolved against BaseDir, which
// defaults to the current working directory.
type Paths struct {
	BaseDir    string
	DataFile   string
	FiguresDir string
	ReportsDir string
	LogsDir    string
}

// GetPaths resolves the configured paths into absolute locations
func GetPaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}

	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	return &Paths{
		BaseDir:    base,
		DataFile:   resolve(base, cfg.DataFile),
		FiguresDir: resolve(base, cfg.FiguresDir),
		ReportsDir: resolve(base, cfg.ReportsDir),
		LogsDir:    resolve(base, cfg.LogsDir),
	}, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// EnsureDirectories creates the output directories if they don't exist.
// The figures directory is created by the chart renderer on demand.
func (p *Paths) EnsureDirectories(logger *slog.Logger, dirs ...string) error {
	if len(dirs) == 0 {
		dirs = []string{p.ReportsDir, p.LogsDir}
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		if logger != nil {
			logger.Debug("Ensured directory exists", slog.String("directory", dir))
		}
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetFigurePath returns the path for a chart image
func (p *Paths) GetFigurePath(filename string) string {
	return filepath.Join(p.FiguresDir, filename)
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetGDPChartPath returns the path of the GDP bar chart for a year
func (p *Paths) GetGDPChartPath(year int) string {
	return p.GetFigurePath(fmt.Sprintf(GDPChartFilePattern, year))
}

// ResolveUnderBase makes a configured relative path absolute against BaseDir
func (p *Paths) ResolveUnderBase(path string) string {
	return resolve(p.BaseDir, path)
}

// LogPathResolution logs the resolved path set
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("paths",
			slog.String("base", p.BaseDir),
			slog.String("data_file", p.DataFile),
			slog.String("figures", p.FiguresDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Bool("data_file_exists", FileExists(p.DataFile)))
}
