package types

// Advisory pairs the installed version of a component with the version a
// plugin narrative says it should be upgraded to.
type Advisory struct {
	Ecosystem  string `json:"ecosystem" yaml:"ecosystem"`
	OldVersion string `json:"oldVersion" yaml:"oldVersion"`
	NewVersion string `json:"newVersion" yaml:"newVersion"`
	Severity   int    `json:"severity" yaml:"severity"`
}

type Advisories []Advisory

// HostAdvisories are the advisories of a single report host, in finding order.
type HostAdvisories struct {
	Host            string     `json:"host" yaml:"host"`
	OperatingSystem string     `json:"operatingSystem,omitempty" yaml:"operatingSystem,omitempty"`
	Advisories      Advisories `json:"advisories" yaml:"advisories"`
}

// FindingRef identifies the finding an advisory was mined from, for outputs
// that need vulnerability identifiers (e.g. VEX).
type FindingRef struct {
	Host       string     `json:"host" yaml:"host"`
	PluginID   string     `json:"pluginID" yaml:"pluginID"`
	PluginName string     `json:"pluginName" yaml:"pluginName"`
	CVEs       []string   `json:"cves,omitempty" yaml:"cves,omitempty"`
	Advisories Advisories `json:"advisories" yaml:"advisories"`
}

// AuditResult is what the audit workflow hands to the output writers.
type AuditResult struct {
	ReportName string           `json:"reportName" yaml:"reportName"`
	Source     string           `json:"source" yaml:"source"`
	HostCount  int              `json:"hostCount" yaml:"hostCount"`
	ItemCount  int              `json:"itemCount" yaml:"itemCount"`
	Hosts      []HostAdvisories `json:"hosts" yaml:"hosts"`
	Findings   []FindingRef     `json:"-" yaml:"-"`
}

// Total returns the number of advisories across all hosts.
func (r *AuditResult) Total() int {
	n := 0
	for _, h := range r.Hosts {
		n += len(h.Advisories)
	}
	return n
}
