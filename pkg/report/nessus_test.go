package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-copacetic/nessus/pkg/errdefs"
)

func TestParseFile(t *testing.T) {
	nd, err := ParseFile(filepath.Join("testdata", "sample.nessus"))
	require.NoError(t, err)

	assert.Equal(t, "weekly-linux", nd.Report.Name)
	require.Len(t, nd.Report.Hosts, 2)
	assert.Equal(t, 5, nd.Report.ItemCount())

	// document order is preserved
	assert.Equal(t, "192.168.1.10", nd.Report.Hosts[0].Name)
	assert.Equal(t, "10.0.0.5", nd.Report.Hosts[1].Name)

	first := nd.Report.Hosts[0]
	require.Len(t, first.Items, 3)
	assert.Equal(t, []string{"19506", "103874", "22964"}, []string{
		first.Items[0].PluginID, first.Items[1].PluginID, first.Items[2].PluginID,
	})
	assert.Equal(t, "Linux Kernel 3.16.0-4-amd64 on Debian 8.10", first.OperatingSystem())
	assert.Equal(t, "192.168.1.10", first.Property("host-ip"))
	assert.Equal(t, "", first.Property("mac-address"))
	assert.Len(t, first.Properties.Tags, 4)

	bind := first.Items[1]
	assert.Equal(t, "3", bind.Severity)
	assert.Equal(t, "Debian Local Security Checks", bind.PluginFamily)
	assert.Equal(t, "general", bind.SvcName)
	assert.Equal(t, "tcp", bind.Protocol)
	assert.Equal(t, "0", bind.Port)
	assert.Equal(t, []string{"CVE-2017-3141", "CVE-2017-3145"}, bind.CVEs)
	assert.Equal(t, []string{"DLA:1142-1"}, bind.Xrefs)
	assert.Equal(t, "7.5", bind.CVSSBaseScore)
	assert.True(t, bind.HasOutput())
	assert.Contains(t, *bind.PluginOutput, "Remote package installed : bind9-host_1:9.9.5.dfsg-9+deb8u11")

	svc := first.Items[2]
	assert.False(t, svc.HasOutput())
	assert.Nil(t, svc.PluginOutput)

	java := nd.Report.Hosts[1].Items[1]
	assert.Equal(t, "false", java.ExploitAvailable)
	assert.Equal(t, "4", java.Severity)
}

func TestParsePolicy(t *testing.T) {
	nd, err := NewNessusParser().Parse(filepath.Join("testdata", "sample.nessus"))
	require.NoError(t, err)

	p := nd.Policy
	assert.Equal(t, "Basic Network Scan", p.Name)

	v, ok := p.Preferences.ServerPreferences.Get("max_hosts")
	assert.True(t, ok)
	assert.Equal(t, "30", v)
	_, ok = p.Preferences.ServerPreferences.Get("missing")
	assert.False(t, ok)

	require.Len(t, p.Preferences.PluginsPreferences.Preferences, 1)
	pref := p.Preferences.PluginsPreferences.Preferences[0]
	assert.Equal(t, uint64(10180), pref.PluginID)
	assert.Equal(t, "entry", pref.PreferenceType)

	require.Len(t, p.FamilySelection.FamilyItems, 2)
	assert.Equal(t, "Debian Local Security Checks", p.FamilySelection.FamilyItems[0].FamilyName)
	assert.Equal(t, "enabled", p.FamilySelection.FamilyItems[0].Status)

	require.Len(t, p.IndividualPluginSelection.PluginItems, 1)
	assert.Equal(t, uint64(34220), p.IndividualPluginSelection.PluginItems[0].PluginID)
	assert.Equal(t, "Port scanners", p.IndividualPluginSelection.PluginItems[0].Family)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "empty input",
			data: "",
		},
		{
			name: "not xml",
			data: "this is not a report",
		},
		{
			name: "missing report section",
			data: `<NessusClientData_v2><Policy><policyName>p</policyName></Policy></NessusClientData_v2>`,
		},
		{
			name: "missing policy section",
			data: `<NessusClientData_v2><Report name="r"></Report></NessusClientData_v2>`,
		},
		{
			name: "wrong root element",
			data: `<NessusClientData><Policy/><Report name="r"/></NessusClientData>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nd, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Nil(t, nd)
			assert.True(t, errdefs.IsParse(err), "expected parse error, got %v", err)
		})
	}
}

func TestParseFileMalformed(t *testing.T) {
	nd, err := ParseFile(filepath.Join("testdata", "invalid.nessus"))
	require.Error(t, err)
	assert.Nil(t, nd)
	assert.True(t, errdefs.IsParse(err))
	assert.Contains(t, err.Error(), "invalid.nessus")
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join("testdata", "does-not-exist.nessus"))
	require.Error(t, err)
	assert.False(t, errdefs.IsParse(err))
}

func TestParseNoHosts(t *testing.T) {
	nd, err := ParseFile(filepath.Join("testdata", "sparse.nessus"))
	require.NoError(t, err)
	assert.Equal(t, "no-hosts", nd.Report.Name)
	assert.Empty(t, nd.Report.Hosts)
	assert.Equal(t, 0, nd.Report.ItemCount())
}

func TestSeverityLevel(t *testing.T) {
	tests := []struct {
		severity string
		want     int
		wantErr  bool
	}{
		{severity: "0", want: 0},
		{severity: "3", want: 3},
		{severity: "4", want: 4},
		{severity: "high", wantErr: true},
		{severity: "", wantErr: true},
		{severity: "-1", wantErr: true},
		{severity: "0x3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.severity, func(t *testing.T) {
			item := ReportItem{PluginID: "103874", Severity: tt.severity}
			got, err := item.SeverityLevel()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errdefs.IsCoercion(err))
				assert.Contains(t, err.Error(), "103874")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
