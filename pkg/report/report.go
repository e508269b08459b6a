package report

import (
	"encoding/xml"
	"strconv"

	"github.com/pkg/errors"

	"github.com/project-copacetic/nessus/pkg/errdefs"
)

// NessusClientData is the root of a .nessus (v2) export: the scan results and
// the policy the scan ran with.
type NessusClientData struct {
	XMLName xml.Name `xml:"NessusClientData_v2" json:"-" yaml:"-"`
	Policy  Policy   `xml:"Policy" json:"policy" yaml:"policy"`
	Report  Report   `xml:"Report" json:"report" yaml:"report"`
}

type Report struct {
	Name  string       `xml:"name,attr" json:"name" yaml:"name"`
	Hosts []ReportHost `xml:"ReportHost" json:"hosts" yaml:"hosts"`
}

// ItemCount returns the number of findings across all hosts.
func (r *Report) ItemCount() int {
	n := 0
	for i := range r.Hosts {
		n += len(r.Hosts[i].Items)
	}
	return n
}

type ReportHost struct {
	Name       string         `xml:"name,attr" json:"name" yaml:"name"`
	Properties HostProperties `xml:"HostProperties" json:"properties" yaml:"properties"`
	Items      []ReportItem   `xml:"ReportItem" json:"items" yaml:"items"`
}

// Property returns the value of the named host property tag, or "".
func (h *ReportHost) Property(name string) string {
	v, _ := h.Properties.Get(name)
	return v
}

// OperatingSystem returns the operating-system host tag.
func (h *ReportHost) OperatingSystem() string {
	return h.Property("operating-system")
}

type HostProperties struct {
	Tags []Tag `xml:"tag" json:"tags" yaml:"tags"`
}

// Get returns the first tag with the given name.
func (p HostProperties) Get(name string) (string, bool) {
	for _, t := range p.Tags {
		if t.Name == name {
			return t.Value, true
		}
	}
	return "", false
}

type Tag struct {
	Name  string `xml:"name,attr" json:"name" yaml:"name"`
	Value string `xml:",chardata" json:"value" yaml:"value"`
}

// ReportItem is a single finding for a host, as reported by one plugin.
type ReportItem struct {
	Port         string `xml:"port,attr" json:"port" yaml:"port"`
	SvcName      string `xml:"svc_name,attr" json:"svcName" yaml:"svcName"`
	Protocol     string `xml:"protocol,attr" json:"protocol" yaml:"protocol"`
	Severity     string `xml:"severity,attr" json:"severity" yaml:"severity"`
	PluginID     string `xml:"pluginID,attr" json:"pluginID" yaml:"pluginID"`
	PluginName   string `xml:"pluginName,attr" json:"pluginName" yaml:"pluginName"`
	PluginFamily string `xml:"pluginFamily,attr" json:"pluginFamily" yaml:"pluginFamily"`

	Description            string  `xml:"description" json:"description" yaml:"description"`
	Fname                  string  `xml:"fname" json:"fname" yaml:"fname"`
	PluginModificationDate string  `xml:"plugin_modification_date" json:"pluginModificationDate" yaml:"pluginModificationDate"`
	PluginPublicationDate  string  `xml:"plugin_publication_date" json:"pluginPublicationDate" yaml:"pluginPublicationDate"`
	PluginType             string  `xml:"plugin_type" json:"pluginType" yaml:"pluginType"`
	RiskFactor             string  `xml:"risk_factor" json:"riskFactor" yaml:"riskFactor"`
	ScriptVersion          string  `xml:"script_version" json:"scriptVersion" yaml:"scriptVersion"`
	Solution               string  `xml:"solution" json:"solution" yaml:"solution"`
	Synopsis               string  `xml:"synopsis" json:"synopsis" yaml:"synopsis"`
	PluginOutput           *string `xml:"plugin_output" json:"pluginOutput,omitempty" yaml:"pluginOutput,omitempty"`

	CVEs             []string `xml:"cve" json:"cves,omitempty" yaml:"cves,omitempty"`
	BIDs             []string `xml:"bid" json:"bids,omitempty" yaml:"bids,omitempty"`
	Xrefs            []string `xml:"xref" json:"xrefs,omitempty" yaml:"xrefs,omitempty"`
	SeeAlso          string   `xml:"see_also" json:"seeAlso,omitempty" yaml:"seeAlso,omitempty"`
	CVSSBaseScore    string   `xml:"cvss_base_score" json:"cvssBaseScore,omitempty" yaml:"cvssBaseScore,omitempty"`
	CVSS3BaseScore   string   `xml:"cvss3_base_score" json:"cvss3BaseScore,omitempty" yaml:"cvss3BaseScore,omitempty"`
	ExploitAvailable string   `xml:"exploit_available" json:"exploitAvailable,omitempty" yaml:"exploitAvailable,omitempty"`
}

// SeverityLevel returns the numeric severity of the finding.
// The exporter writes severity as an attribute string; only plain decimal
// values are accepted.
func (i *ReportItem) SeverityLevel() (int, error) {
	n, err := strconv.ParseUint(i.Severity, 10, 32)
	if err != nil {
		return 0, errdefs.Coercion("severity", errors.Wrapf(err, "plugin %s: severity %q is not numeric", i.PluginID, i.Severity))
	}
	return int(n), nil
}

// HasOutput reports whether the finding carries a plugin narrative.
func (i *ReportItem) HasOutput() bool {
	return i.PluginOutput != nil
}

