package dataprocessing

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/kotfilip/ds-consulting-project/internal/errors"
	"github.com/kotfilip/ds-consulting-project/internal/validation"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Loader reads panel data files into raw string tables
type Loader struct {
	logger    *slog.Logger
	validator *validation.FileValidator
}

// NewLoader creates a loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:    logger,
		validator: validation.NewFileValidator(logger),
	}
}

// LoadFile reads path into a DataFrame whose columns are all strings
func (l *Loader) LoadFile(ctx context.Context, path string, opts LoadOptions) (dataframe.DataFrame, error) {
	format, err := l.validator.ValidateDataFile(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	var df dataframe.DataFrame
	switch format {
	case validation.FormatXLSX:
		df, err = LoadXLSX(path, opts)
	default:
		if format == validation.FormatTSV && opts.Delimiter == 0 {
			opts.Delimiter = '\t'
		}
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return dataframe.DataFrame{}, apperrors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
		}
		defer f.Close()
		df, err = LoadCSV(f, opts)
	}
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok {
			appErr.WithContext("file", path)
		}
		l.logger.ErrorContext(ctx, "Failed to load data file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return dataframe.DataFrame{}, err
	}

	l.logger.InfoContext(ctx, "Loaded data file",
		slog.String("file", path),
		slog.String("format", string(format)),
		slog.Int("rows", df.Nrow()),
		slog.Int("columns", df.Ncol()))

	return df, nil
}

// LoadCSV reads delimited text into a DataFrame of string columns. The first
// record is the header; a leading UTF-8 BOM is ignored.
func LoadCSV(r io.Reader, opts LoadOptions) (dataframe.DataFrame, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return dataframe.DataFrame{}, apperrors.NewStorageError("failed to read input", err)
	}
	content = bytes.TrimPrefix(content, utf8BOM)

	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = SniffDelimiter(content)
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = delimiter
	reader.FieldsPerRecord = 0

	records, err := reader.ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, apperrors.NewParsingError("failed to parse delimited data", err)
	}

	return recordsToFrame(records)
}

// LoadXLSX reads one sheet of a workbook into a DataFrame of string columns
func LoadXLSX(path string, opts LoadOptions) (dataframe.DataFrame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return dataframe.DataFrame{}, apperrors.NewParsingError(fmt.Sprintf("failed to open workbook %s", path), err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return dataframe.DataFrame{}, apperrors.NewParsingError("workbook has no sheets", nil)
		}
		sheet = sheets[0]
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return dataframe.DataFrame{}, apperrors.NewNotFoundError(fmt.Sprintf("sheet %q", sheet))
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return dataframe.DataFrame{}, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %s", sheet), err)
	}

	// Trailing empty cells are omitted by GetRows
	if len(rows) > 0 {
		width := len(rows[0])
		for i, row := range rows {
			if len(row) < width {
				padded := make([]string, width)
				copy(padded, row)
				rows[i] = padded
			} else if len(row) > width {
				rows[i] = row[:width]
			}
		}
	}

	return recordsToFrame(dropBlankRows(rows))
}

// SniffDelimiter inspects the header line: tab when it only has tabs,
// semicolon when it has semicolons but no commas, comma otherwise
func SniffDelimiter(content []byte) rune {
	line := content
	if i := bytes.IndexAny(content, "\r\n"); i >= 0 {
		line = content[:i]
	}
	commas := bytes.Count(line, []byte(","))
	semicolons := bytes.Count(line, []byte(";"))
	tabs := bytes.Count(line, []byte("\t"))

	switch {
	case tabs > 0 && commas == 0 && semicolons == 0:
		return '\t'
	case semicolons > 0 && commas == 0:
		return ';'
	default:
		return ','
	}
}

func recordsToFrame(records [][]string) (dataframe.DataFrame, error) {
	if len(records) == 0 {
		return dataframe.DataFrame{}, apperrors.NewParsingError("input has no header row", nil)
	}

	header := records[0]
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			return dataframe.DataFrame{}, apperrors.NewParsingError(fmt.Sprintf("column %d has an empty header", i+1), nil)
		}
		if seen[name] {
			return dataframe.DataFrame{}, apperrors.NewParsingError(fmt.Sprintf("duplicate column %q", name), nil)
		}
		seen[name] = true
		header[i] = name
	}

	// Build string series directly so cells are kept verbatim
	columns := make([]series.Series, len(header))
	for c, name := range header {
		values := make([]string, len(records)-1)
		for r := 1; r < len(records); r++ {
			values[r-1] = records[r][c]
		}
		columns[c] = series.New(values, series.String, name)
	}

	df := dataframe.New(columns...)
	if df.Err != nil {
		return dataframe.DataFrame{}, apperrors.NewParsingError("failed to build table", df.Err)
	}
	return df, nil
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0]
	for i, row := range rows {
		if i > 0 && isBlank(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
