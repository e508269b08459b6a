package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Regular expression for matching report files
var reportFileRegex = regexp.MustCompile(`^(.+)\.nessus$`)

// DiscoverReports scans a directory for .nessus exports and returns them keyed
// by file name without extension.
func DiscoverReports(reportDir string) (map[string]string, error) {
	if reportDir == "" {
		return nil, fmt.Errorf("report directory not specified")
	}

	info, err := os.Stat(reportDir)
	if err != nil {
		return nil, fmt.Errorf("accessing report directory: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", reportDir)
	}

	entries, err := os.ReadDir(reportDir)
	if err != nil {
		return nil, fmt.Errorf("reading report directory: %w", err)
	}

	reports := make(map[string]string)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		matches := reportFileRegex.FindStringSubmatch(entry.Name())
		if len(matches) == 2 {
			reports[matches[1]] = filepath.Join(reportDir, entry.Name())
		}
	}

	return reports, nil
}
