package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-copacetic/nessus/pkg/client"
	"github.com/project-copacetic/nessus/pkg/errdefs"
	"github.com/project-copacetic/nessus/pkg/report"
	"github.com/project-copacetic/nessus/pkg/wait"
)

var (
	samplePath  = filepath.Join("..", "report", "testdata", "sample.nessus")
	invalidPath = filepath.Join("..", "report", "testdata", "invalid.nessus")
)

func copyFixture(t *testing.T, src, dir, name string) {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestRunReportFile(t *testing.T) {
	results, err := Run(context.Background(), &Options{ReportPath: samplePath})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, "weekly-linux", res.ReportName)
	assert.Equal(t, samplePath, res.Source)
	assert.Equal(t, 2, res.HostCount)
	assert.Equal(t, 5, res.ItemCount)
	assert.Equal(t, 5, res.Total())
	require.Len(t, res.Hosts, 2)
	assert.Len(t, res.Findings, 3)
}

func TestRunReportDir(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, samplePath, dir, "b-weekly.nessus")
	copyFixture(t, samplePath, dir, "a-daily.nessus")

	results, err := Run(context.Background(), &Options{ReportDir: dir})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, filepath.Join(dir, "a-daily.nessus"), results[0].Source)
	assert.Equal(t, filepath.Join(dir, "b-weekly.nessus"), results[1].Source)
}

func TestRunReportDirPartialFailure(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, samplePath, dir, "good.nessus")
	copyFixture(t, invalidPath, dir, "broken.nessus")

	results, err := Run(context.Background(), &Options{ReportDir: dir})
	require.Error(t, err)
	assert.True(t, errdefs.IsParse(err))
	assert.Contains(t, err.Error(), "broken.nessus")
	require.Len(t, results, 1)
	assert.Equal(t, "weekly-linux", results[0].ReportName)
}

func TestRunErrors(t *testing.T) {
	_, err := Run(context.Background(), &Options{})
	assert.Error(t, err)

	_, err = Run(context.Background(), &Options{ReportDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .nessus reports found")

	_, err = Run(context.Background(), &Options{ReportPath: invalidPath})
	assert.True(t, errdefs.IsParse(err))
}

func TestAnalyzeCoercionError(t *testing.T) {
	out := "Remote package installed : a_1.0\nShould be : a_1.1"
	nd := &report.NessusClientData{Report: report.Report{
		Name: "bad-severity",
		Hosts: []report.ReportHost{{
			Name:  "h",
			Items: []report.ReportItem{{PluginID: "1", Severity: "High", PluginOutput: &out}},
		}},
	}}

	res, err := Analyze(nd, "inline", (&Options{}).extractor())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errdefs.IsCoercion(err))
}

// fakeRemote scripts a scanner: the scan runs for scanChecks status checks and
// the export is ready after exportChecks checks.
type fakeRemote struct {
	scanChecks   int
	exportChecks int
	launchErr    error

	launched     []uint64
	exported     []uint64
	detailCalls  int
	statusCalls  int
	downloadFile uint64
}

func (f *fakeRemote) LaunchScan(_ context.Context, id uint64) (*client.ScanLaunch, error) {
	if f.launchErr != nil {
		return nil, f.launchErr
	}
	f.launched = append(f.launched, id)
	return &client.ScanLaunch{ScanUUID: "run-uuid", ScanID: id}, nil
}

func (f *fakeRemote) ExportScan(_ context.Context, id uint64) (*client.ExportToken, error) {
	f.exported = append(f.exported, id)
	return &client.ExportToken{File: 1234, Token: "tok", ScanID: id}, nil
}

func (f *fakeRemote) ScanDetails(_ context.Context, _ uint64) (*client.ScanDetails, error) {
	f.detailCalls++
	status := client.ScanStatusComplete
	if f.detailCalls <= f.scanChecks {
		status = client.ScanStatusRunning
	}
	return &client.ScanDetails{Info: client.ScanDetailsInfo{Status: status}}, nil
}

func (f *fakeRemote) ExportStatus(_ context.Context, _, _ uint64) (*client.ExportStatus, error) {
	f.statusCalls++
	if f.statusCalls <= f.exportChecks {
		return &client.ExportStatus{Status: "loading"}, nil
	}
	return &client.ExportStatus{Status: client.ExportStatusReady}, nil
}

func (f *fakeRemote) DownloadExport(_ context.Context, _, fileID uint64) (*report.NessusClientData, error) {
	f.downloadFile = fileID
	return report.ParseFile(samplePath)
}

func remoteOptions(id uint64) *Options {
	return &Options{
		ScanID:     id,
		ScanWait:   wait.Options{Interval: time.Millisecond, MaxAttempts: wait.Attempts(5)},
		ExportWait: wait.Options{Interval: time.Millisecond, MaxAttempts: wait.Attempts(5)},
	}
}

func TestRunRemote(t *testing.T) {
	// given
	remote := &fakeRemote{scanChecks: 2, exportChecks: 1}

	// when
	res, err := RunRemote(context.Background(), remote, remoteOptions(42))

	// then
	require.NoError(t, err)
	assert.Equal(t, []uint64{42}, remote.launched)
	assert.Equal(t, []uint64{42}, remote.exported)
	assert.Equal(t, 3, remote.detailCalls)
	assert.Equal(t, 2, remote.statusCalls)
	assert.Equal(t, uint64(1234), remote.downloadFile)
	assert.Equal(t, "scan 42", res.Source)
	assert.Equal(t, 5, res.Total())
}

func TestRunRemoteNoLaunch(t *testing.T) {
	remote := &fakeRemote{}
	opts := remoteOptions(42)
	opts.NoLaunch = true

	_, err := RunRemote(context.Background(), remote, opts)
	require.NoError(t, err)
	assert.Empty(t, remote.launched)
	assert.Zero(t, remote.detailCalls)
	assert.Equal(t, []uint64{42}, remote.exported)
}

func TestRunRemoteScanTimeout(t *testing.T) {
	remote := &fakeRemote{scanChecks: 100}

	_, err := RunRemote(context.Background(), remote, remoteOptions(42))
	require.Error(t, err)
	assert.True(t, errdefs.IsTimeout(err))
	assert.Equal(t, 6, remote.detailCalls)
	assert.Empty(t, remote.exported)
}

func TestRunRemoteLaunchError(t *testing.T) {
	remote := &fakeRemote{launchErr: errdefs.Transport("POST /scans/42/launch", errors.New("refused"))}

	_, err := RunRemote(context.Background(), remote, remoteOptions(42))
	require.Error(t, err)
	assert.True(t, errdefs.IsTransport(err))
	assert.Contains(t, err.Error(), "failed to launch scan 42")
}

func TestRunRemoteNoScan(t *testing.T) {
	_, err := RunRemote(context.Background(), &fakeRemote{}, remoteOptions(0))
	assert.Error(t, err)
}
