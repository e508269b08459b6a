// Package audit turns scan reports into per-host patch advisories, either from
// exported report files or by driving a scan on a live scanner.
package audit

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/project-copacetic/nessus/pkg/advisory"
	"github.com/project-copacetic/nessus/pkg/client"
	"github.com/project-copacetic/nessus/pkg/report"
	"github.com/project-copacetic/nessus/pkg/types"
	"github.com/project-copacetic/nessus/pkg/wait"
)

// Remote is the part of the scanner API a remote audit needs.
type Remote interface {
	client.StatusQuerier
	client.Downloader
	LaunchScan(ctx context.Context, id uint64) (*client.ScanLaunch, error)
	ExportScan(ctx context.Context, scanID uint64) (*client.ExportToken, error)
}

type Options struct {
	// ReportPath is a single .nessus file to audit.
	ReportPath string
	// ReportDir is a directory of .nessus files to audit.
	ReportDir string

	ScanID     uint64
	NoLaunch   bool
	ScanWait   wait.Options
	ExportWait wait.Options

	Table advisory.Table
}

func (o *Options) extractor() *advisory.Extractor {
	if o.Table.Len() == 0 {
		return advisory.New(advisory.DefaultTable())
	}
	return advisory.New(o.Table)
}

// Analyze extracts the advisories of a parsed report. source names where the
// report came from.
func Analyze(nd *report.NessusClientData, source string, ex *advisory.Extractor) (*types.AuditResult, error) {
	hosts, err := ex.ForReport(&nd.Report)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to extract advisories from %s", source)
	}

	res := &types.AuditResult{
		ReportName: nd.Report.Name,
		Source:     source,
		HostCount:  len(nd.Report.Hosts),
		ItemCount:  nd.Report.ItemCount(),
		Hosts:      hosts,
		Findings:   ex.Findings(&nd.Report),
	}
	verify(res)
	log.Infof("Found %d advisories on %d of %d hosts in %s", res.Total(), len(res.Hosts), res.HostCount, source)
	return res, nil
}

// verify warns about advisories that do not move to a newer version.
func verify(res *types.AuditResult) {
	for _, h := range res.Hosts {
		for _, a := range h.Advisories {
			ok, err := advisory.Verify(a, h.OperatingSystem)
			if err != nil {
				log.Warnf("%s: cannot compare %s and %s: %v", h.Host, a.OldVersion, a.NewVersion, err)
				continue
			}
			if !ok {
				log.Warnf("%s: fixed version %s is not newer than installed %s", h.Host, a.NewVersion, a.OldVersion)
			}
		}
	}
}

// Run audits report files. Every report of a directory is audited even if
// some fail; results are ordered by report name.
func Run(_ context.Context, opts *Options) ([]*types.AuditResult, error) {
	ex := opts.extractor()

	switch {
	case opts.ReportPath != "":
		nd, err := report.ParseFile(opts.ReportPath)
		if err != nil {
			return nil, err
		}
		res, err := Analyze(nd, opts.ReportPath, ex)
		if err != nil {
			return nil, err
		}
		return []*types.AuditResult{res}, nil

	case opts.ReportDir != "":
		reports, err := report.DiscoverReports(opts.ReportDir)
		if err != nil {
			return nil, err
		}
		if len(reports) == 0 {
			return nil, fmt.Errorf("no .nessus reports found in %s", opts.ReportDir)
		}
		names := make([]string, 0, len(reports))
		for name := range reports {
			names = append(names, name)
		}
		sort.Strings(names)

		var (
			results []*types.AuditResult
			errs    *multierror.Error
		)
		for _, name := range names {
			path := reports[name]
			nd, err := report.ParseFile(path)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			res, err := Analyze(nd, path, ex)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			results = append(results, res)
		}
		return results, errs.ErrorOrNil()

	default:
		return nil, fmt.Errorf("no report file or directory given")
	}
}

// RunRemote launches the scan, waits for it to finish, exports and downloads
// its results and audits them. With NoLaunch the latest results are exported
// without starting a new run.
func RunRemote(ctx context.Context, c Remote, opts *Options) (*types.AuditResult, error) {
	id := opts.ScanID
	if id == 0 {
		return nil, fmt.Errorf("no scan id given")
	}

	if !opts.NoLaunch {
		log.Infof("Starting scan %d...", id)
		launch, err := c.LaunchScan(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to launch scan %d", id)
		}
		if err := launch.Wait(ctx, c, opts.ScanWait); err != nil {
			return nil, errors.Wrapf(err, "scan %d did not finish", id)
		}
		log.Infof("Scan %d finished, exporting...", id)
	}

	export, err := c.ExportScan(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to export scan %d", id)
	}
	if err := export.Wait(ctx, c, opts.ExportWait); err != nil {
		return nil, errors.Wrapf(err, "export %d of scan %d not ready", export.File, id)
	}
	log.Infof("Export %d of scan %d ready, downloading...", export.File, id)

	nd, err := export.Download(ctx, c)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to download export %d of scan %d", export.File, id)
	}
	return Analyze(nd, fmt.Sprintf("scan %d", id), opts.extractor())
}
