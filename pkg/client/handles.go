package client

import (
	"context"

	"github.com/project-copacetic/nessus/pkg/report"
	"github.com/project-copacetic/nessus/pkg/wait"
)

// StatusQuerier answers the status questions the job handles poll with.
type StatusQuerier interface {
	ScanDetails(ctx context.Context, id uint64) (*ScanDetails, error)
	ExportStatus(ctx context.Context, scanID, fileID uint64) (*ExportStatus, error)
}

// Downloader fetches and parses finished exports.
type Downloader interface {
	DownloadExport(ctx context.Context, scanID, fileID uint64) (*report.NessusClientData, error)
}

var (
	_ StatusQuerier = (*Client)(nil)
	_ Downloader    = (*Client)(nil)

	_ wait.Waitable[StatusQuerier] = (*ScanLaunch)(nil)
	_ wait.Waitable[StatusQuerier] = (*ExportToken)(nil)
)

// IsPending reports whether the scan is still running.
func (s *ScanLaunch) IsPending(ctx context.Context, q StatusQuerier) (bool, error) {
	details, err := q.ScanDetails(ctx, s.ScanID)
	if err != nil {
		return false, err
	}
	return details.IsRunning(), nil
}

// Wait blocks until the scan stops running or the attempt budget runs out.
func (s *ScanLaunch) Wait(ctx context.Context, q StatusQuerier, opts wait.Options) error {
	return wait.Until[StatusQuerier](ctx, s, q, opts)
}

// IsPending reports whether the export file is not ready yet.
func (t *ExportToken) IsPending(ctx context.Context, q StatusQuerier) (bool, error) {
	status, err := q.ExportStatus(ctx, t.ScanID, t.File)
	if err != nil {
		return false, err
	}
	return !status.IsReady(), nil
}

func (t *ExportToken) Wait(ctx context.Context, q StatusQuerier, opts wait.Options) error {
	return wait.Until[StatusQuerier](ctx, t, q, opts)
}

// Download fetches and parses the export. The export should be ready.
func (t *ExportToken) Download(ctx context.Context, d Downloader) (*report.NessusClientData, error) {
	return d.DownloadExport(ctx, t.ScanID, t.File)
}
