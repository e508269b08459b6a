package report

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper to create a test report file
func createTestReportFile(t *testing.T, dir, filename, content string) {
	path := filepath.Join(dir, filename)
	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err)
}

func TestDiscoverReports(t *testing.T) {
	tempDir := t.TempDir()

	createTestReportFile(t, tempDir, "weekly.nessus", "<NessusClientData_v2/>")
	createTestReportFile(t, tempDir, "monthly.nessus", "<NessusClientData_v2/>")
	createTestReportFile(t, tempDir, "other-file.txt", "not a report")

	// Subdirectories are ignored even when named like a report
	err := os.Mkdir(filepath.Join(tempDir, "nested.nessus"), 0o755)
	require.NoError(t, err)

	reports, err := DiscoverReports(tempDir)
	require.NoError(t, err)

	require.Len(t, reports, 2, "Should find two report files")
	assert.Equal(t, filepath.Join(tempDir, "weekly.nessus"), reports["weekly"])
	assert.Equal(t, filepath.Join(tempDir, "monthly.nessus"), reports["monthly"])
}

func TestDiscoverReportsCustomPattern(t *testing.T) {
	tempDir := t.TempDir()

	createTestReportFile(t, tempDir, "scan-42.xml", "")
	createTestReportFile(t, tempDir, "scan-42.nessus", "")

	origReportFileRegex := reportFileRegex
	defer func() { reportFileRegex = origReportFileRegex }()
	reportFileRegex = regexp.MustCompile(`^scan-(\d+)\.xml$`)

	reports, err := DiscoverReports(tempDir)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Contains(t, reports["42"], "scan-42.xml")
}

func TestDiscoverReportsErrors(t *testing.T) {
	tempDir := t.TempDir()
	file := filepath.Join(tempDir, "weekly.nessus")
	createTestReportFile(t, tempDir, "weekly.nessus", "")

	tests := []struct {
		name    string
		dir     string
		wantErr string
	}{
		{name: "empty", dir: "", wantErr: "report directory not specified"},
		{name: "missing", dir: filepath.Join(tempDir, "absent"), wantErr: "accessing report directory"},
		{name: "not a directory", dir: file, wantErr: "is not a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports, err := DiscoverReports(tt.dir)
			require.Error(t, err)
			assert.Nil(t, reports)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
