// Package config provides configuration management for the panel report.
// It loads settings from multiple sources, validates them and resolves the
// filesystem paths used by the pipeline.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Command line flags (applied by the caller, highest priority)
//	2. Environment variables
//	3. A YAML file given by -config or PANEL_CONFIG_FILE
//	4. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern PANEL_<SECTION>_<FIELD>:
//
//	PANEL_LOGGING_LEVEL=debug
//	PANEL_PATHS_DATA_FILE=data/data.csv
//	PANEL_PLOT_GDP_YEAR=2022
//	PANEL_PLOT_REGIONS=Mazowieckie,Pomorskie
//	PANEL_TELEMETRY_ENABLE_METRICS=true
//
// # Path Management
//
// Relative paths are resolved against paths.base_dir, or the working
// directory when it is unset:
//
//	paths, err := config.GetPaths(cfg.Paths)
//	chart := paths.GetFigurePath(config.MortalityTrendFile)
package config
