package exporter

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotfilip/ds-consulting-project/internal/config"
	apperrors "github.com/kotfilip/ds-consulting-project/internal/errors"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Setup test environment
func setupTestEnv(t *testing.T) (*CSVWriter, string) {
	t.Helper()

	tempDir := t.TempDir()
	writer := NewCSVWriter(&config.Paths{
		BaseDir:    tempDir,
		ReportsDir: filepath.Join(tempDir, "reports"),
	}, quietLogger)

	return writer, tempDir
}

func TestNewCSVWriter(t *testing.T) {
	paths := &config.Paths{}
	writer := NewCSVWriter(paths, nil)

	assert.NotNil(t, writer)
	assert.Equal(t, paths, writer.paths)
	assert.NotNil(t, writer.logger)
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	tests := []struct {
		name     string
		filePath string
		options  WriteOptions
		validate func(t *testing.T, content []byte)
	}{
		{
			name:     "basic write with headers",
			filePath: "test_basic.csv",
			options: WriteOptions{
				Headers: []string{"region", "year", "mortality"},
				Records: [][]string{
					{"Mazowieckie", "2020", "10.5"},
					{"Śląskie", "2021", "11"},
				},
			},
			validate: func(t *testing.T, content []byte) {
				lines := strings.Split(strings.TrimSpace(string(content)), "\n")
				assert.Len(t, lines, 3) // header + 2 records
				assert.Equal(t, "region,year,mortality", lines[0])
				assert.Equal(t, "Mazowieckie,2020,10.5", lines[1])
				assert.Equal(t, "Śląskie,2021,11", lines[2])
			},
		},
		{
			name:     "write with BOM prefix",
			filePath: "test_bom.csv",
			options: WriteOptions{
				Headers:   []string{"variable", "coefficient"},
				Records:   [][]string{{"pollution", "0.03"}},
				BOMPrefix: true,
			},
			validate: func(t *testing.T, content []byte) {
				assert.True(t, bytes.HasPrefix(content, utf8BOM))
				lines := strings.Split(strings.TrimSpace(string(content[3:])), "\n")
				assert.Equal(t, "variable,coefficient", lines[0])
				assert.Equal(t, "pollution,0.03", lines[1])
			},
		},
		{
			name:     "write without headers",
			filePath: "test_no_headers.csv",
			options: WriteOptions{
				Records: [][]string{{"a", "b"}, {"c", "d"}},
			},
			validate: func(t *testing.T, content []byte) {
				lines := strings.Split(strings.TrimSpace(string(content)), "\n")
				assert.Equal(t, []string{"a,b", "c,d"}, lines)
			},
		},
		{
			name:     "empty records",
			filePath: "test_empty.csv",
			options: WriteOptions{
				Headers: []string{"Col1", "Col2"},
				Records: [][]string{},
			},
			validate: func(t *testing.T, content []byte) {
				assert.Equal(t, "Col1,Col2\n", string(content))
			},
		},
		{
			name:     "fields needing quotes",
			filePath: "nested/test_quotes.csv",
			options: WriteOptions{
				Records: [][]string{{"a,b", `say "hi"`}},
			},
			validate: func(t *testing.T, content []byte) {
				assert.Equal(t, "\"a,b\",\"say \"\"hi\"\"\"\n", string(content))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := writer.WriteCSV(tt.filePath, tt.options)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(tempDir, "reports", tt.filePath), path)

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			tt.validate(t, content)
		})
	}
}

func TestCSVWriter_AbsolutePath(t *testing.T) {
	writer, _ := setupTestEnv(t)
	abs := filepath.Join(t.TempDir(), "elsewhere.csv")

	path, err := writer.WriteCSV(abs, WriteOptions{Records: [][]string{{"x"}}})
	require.NoError(t, err)
	assert.Equal(t, abs, path)
	assert.FileExists(t, abs)
}

func TestCSVWriter_StorageError(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	// A file where the reports directory should be
	blocker := filepath.Join(tempDir, "reports")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := writer.WriteCSV("out.csv", WriteOptions{Records: [][]string{{"x"}}})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}

func TestStreamWriter(t *testing.T) {
	writer, _ := setupTestEnv(t)

	stream, err := writer.CreateStreamWriter("stream.csv", []string{"id", "value"}, true)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		require.NoError(t, stream.WriteRecord([]string{formatInt(i), formatFloat(float64(i) / 2)}))
	}
	assert.Equal(t, 100, stream.Count())
	require.NoError(t, stream.Close())

	content, err := os.ReadFile(stream.Path())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, utf8BOM))

	lines := strings.Split(strings.TrimSpace(string(content[3:])), "\n")
	require.Len(t, lines, 101)
	assert.Equal(t, "id,value", lines[0])
	assert.Equal(t, "1,0.5", lines[2])
	assert.Equal(t, "99,49.5", lines[100])
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "0.1", formatFloat(0.1))
	assert.Equal(t, "1e-05", formatFloat(0.00001))
	assert.Equal(t, "NaN", formatFloat(nan()))
	assert.Equal(t, "42", formatInt(42))
}
