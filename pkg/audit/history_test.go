package audit

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeHistory(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewHistoryCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestHistoryCmd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	_, err := executeAudit(t, nil, "--report", samplePath, "--db", dbPath)
	require.NoError(t, err)

	out, err := executeHistory(t, "--db", dbPath, "--host", "10.0.0.5")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "RUN"))
	assert.Contains(t, lines[1], "weekly-linux@")
	assert.Contains(t, lines[1], "openssl-1.0.2k-12.el7")
	assert.Contains(t, lines[3], "1.8.0_191")

	out, err = executeHistory(t, "--db", dbPath, "--host", "172.16.0.1")
	require.NoError(t, err)
	assert.Equal(t, "no advisories recorded for 172.16.0.1\n", out)
}

func TestHistoryCmdRequiresFlags(t *testing.T) {
	_, err := executeHistory(t, "--db", filepath.Join(t.TempDir(), "history.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"host" not set`)
}
