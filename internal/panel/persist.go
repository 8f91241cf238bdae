package panel

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// SaveCoefficientsCSV writes the coefficient table to outputPath
func SaveCoefficientsCSV(result *Result, outputPath string) error {
	if result == nil || len(result.coefficients) == 0 {
		return fmt.Errorf("no coefficients to save")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header, rows := result.CoefficientTable()
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write CSV record for %s: %w", row[0], err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush CSV: %w", err)
	}
	return nil
}

// SaveSummaryReport writes the text summary to outputPath
func SaveSummaryReport(result *Result, outputPath string) error {
	if result == nil {
		return fmt.Errorf("no result to save")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(result.Summary()), 0644); err != nil {
		return fmt.Errorf("write summary file: %w", err)
	}
	return nil
}

// formatFloat formats a value for CSV output at full precision
func formatFloat(value float64) string {
	if math.IsNaN(value) {
		return "NaN"
	}
	return strconv.FormatFloat(value, 'g', -1, 64)
}
