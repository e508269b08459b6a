// Package advisory mines upgrade advisories out of plugin narratives: the
// installed and fixed version pairs a plugin prints for each outdated package.
package advisory

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/project-copacetic/nessus/pkg/report"
	"github.com/project-copacetic/nessus/pkg/types"
)

// Extractor applies a pattern table to findings. It holds no state besides
// the table, so a single Extractor may be used from many goroutines.
type Extractor struct {
	table Table
}

func New(table Table) *Extractor {
	return &Extractor{table: table}
}

// ForItem returns the advisories found in item's narrative: every pattern in
// table order, every match of each pattern in text order. A nil slice means
// the finding has no narrative or nothing matched.
func (e *Extractor) ForItem(item *report.ReportItem) ([]types.Advisory, error) {
	if !item.HasOutput() {
		return nil, nil
	}
	output := *item.PluginOutput

	var (
		advisories []types.Advisory
		severity   int
		coerced    bool
	)
	for _, p := range e.table.patterns {
		for _, m := range p.Expr.FindAllStringSubmatch(output, -1) {
			if !coerced {
				s, err := item.SeverityLevel()
				if err != nil {
					return nil, err
				}
				severity, coerced = s, true
			}
			advisories = append(advisories, types.Advisory{
				Ecosystem:  p.Ecosystem,
				OldVersion: m[p.installed],
				NewVersion: m[p.fixed],
				Severity:   severity,
			})
		}
	}
	if len(advisories) > 0 {
		log.Debugf("plugin %s: %d advisories", item.PluginID, len(advisories))
	}
	return advisories, nil
}

// ForHost concatenates the advisories of each finding on host, in finding
// order. A nil slice means no finding produced any.
func (e *Extractor) ForHost(host *report.ReportHost) ([]types.Advisory, error) {
	var advisories []types.Advisory
	for i := range host.Items {
		found, err := e.ForItem(&host.Items[i])
		if err != nil {
			return nil, errors.Wrapf(err, "host %s", host.Name)
		}
		advisories = append(advisories, found...)
	}
	return advisories, nil
}

// ForReport runs ForHost on every host, skipping hosts without advisories.
// A host that fails does not stop the others; failures are returned together.
func (e *Extractor) ForReport(rep *report.Report) ([]types.HostAdvisories, error) {
	var (
		result []types.HostAdvisories
		errs   *multierror.Error
	)
	for i := range rep.Hosts {
		host := &rep.Hosts[i]
		found, err := e.ForHost(host)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if found == nil {
			continue
		}
		result = append(result, types.HostAdvisories{
			Host:            host.Name,
			OperatingSystem: host.OperatingSystem(),
			Advisories:      found,
		})
	}
	log.Infof("Found %d hosts with advisories in report %q", len(result), rep.Name)
	return result, errs.ErrorOrNil()
}

// Findings returns, per finding that produced advisories, a reference to the
// finding with its identifiers. Failing findings are skipped.
func (e *Extractor) Findings(rep *report.Report) []types.FindingRef {
	var refs []types.FindingRef
	for i := range rep.Hosts {
		host := &rep.Hosts[i]
		for j := range host.Items {
			item := &host.Items[j]
			found, err := e.ForItem(item)
			if err != nil || found == nil {
				continue
			}
			refs = append(refs, types.FindingRef{
				Host:       host.Name,
				PluginID:   item.PluginID,
				PluginName: item.PluginName,
				CVEs:       item.CVEs,
				Advisories: found,
			})
		}
	}
	return refs
}
