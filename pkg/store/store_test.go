package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-copacetic/nessus/pkg/types"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	origNow := now
	defer func() { now = origNow }()
	now = func() time.Time { return time.Unix(1539600000, 0) }

	s, err := Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	hosts := []types.HostAdvisories{
		{
			Host:            "192.168.1.10",
			OperatingSystem: "Debian 8.10",
			Advisories: types.Advisories{
				{Ecosystem: "generic", OldVersion: "bind9-host_1:9.9.5.dfsg-9+deb8u11", NewVersion: "bind9-host_1:9.9.5.dfsg-9+deb8u12", Severity: 3},
				{Ecosystem: "generic", OldVersion: "libbind9-90_1:9.9.5.dfsg-9+deb8u11", NewVersion: "libbind9-90_1:9.9.5.dfsg-9+deb8u12", Severity: 3},
			},
		},
		{
			Host:       "10.0.0.5",
			Advisories: types.Advisories{{Ecosystem: "java", OldVersion: "1.8.0_181", NewVersion: "1.8.0_191", Severity: 4}},
		},
	}
	require.NoError(t, s.Save(ctx, "weekly", hosts))

	now = func() time.Time { return time.Unix(1540200000, 0) }
	require.NoError(t, s.Save(ctx, "next-week", hosts[:1]))

	records, err := s.ListByHost(ctx, "192.168.1.10")
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "weekly", records[0].Run)
	assert.Equal(t, "Debian 8.10", records[0].OperatingSystem)
	assert.Equal(t, hosts[0].Advisories[0], records[0].Advisory)
	assert.Equal(t, hosts[0].Advisories[1], records[1].Advisory)
	assert.Equal(t, int64(1539600000), records[0].Time.Unix())
	assert.Equal(t, "next-week", records[3].Run)

	records, err = s.ListByHost(ctx, "10.0.0.5")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].OperatingSystem)
	assert.Equal(t, 4, records[0].Advisory.Severity)

	records, err = s.ListByHost(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "first", []types.HostAdvisories{
		{Host: "h", Advisories: types.Advisories{{OldVersion: "a_1", NewVersion: "a_2", Severity: 1}}},
	}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.ListByHost(ctx, "h")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "first", records[0].Run)
}

func TestSaveNothing(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(ctx, "empty", nil))
}
