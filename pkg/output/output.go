// Package output renders audit results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/project-copacetic/nessus/pkg/types"
)

const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
	FormatOpenVEX  = "openvex"
)

// Formats lists the supported output formats.
var Formats = []string{FormatText, FormatJSON, FormatYAML, FormatMarkdown, FormatOpenVEX}

// Write renders res to w in the given format.
func Write(w io.Writer, format string, res *types.AuditResult) error {
	switch format {
	case FormatText, "":
		return writeText(w, res)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	case FormatMarkdown:
		_, err := io.WriteString(w, markdown(res))
		return err
	case FormatOpenVEX:
		return writeVEX(w, res)
	default:
		return unsupported(format)
	}
}

// WriteAll renders several results as one output: a JSON array, a YAML
// document stream, a single OpenVEX document, or text/markdown sections one
// after another. A single result is written exactly as Write does.
func WriteAll(w io.Writer, format string, results []*types.AuditResult) error {
	if len(results) == 1 {
		return Write(w, format, results[0])
	}
	switch format {
	case FormatText, "", FormatMarkdown:
		for _, res := range results {
			if err := Write(w, format, res); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, res := range results {
			if err := enc.Encode(res); err != nil {
				return err
			}
		}
		return enc.Close()
	case FormatOpenVEX:
		return writeVEX(w, results...)
	default:
		return unsupported(format)
	}
}

func unsupported(format string) error {
	return fmt.Errorf("unsupported output format %q (supported: %s)", format, strings.Join(Formats, ", "))
}

func writeText(w io.Writer, res *types.AuditResult) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d hosts, %d findings, %d advisories\n", res.ReportName, res.HostCount, res.ItemCount, res.Total())
	for _, h := range res.Hosts {
		if h.OperatingSystem != "" {
			fmt.Fprintf(&sb, "\t%s (%s):\n", h.Host, h.OperatingSystem)
		} else {
			fmt.Fprintf(&sb, "\t%s:\n", h.Host)
		}
		for _, a := range h.Advisories {
			fmt.Fprintf(&sb, "\t\t[%d] %s -> %s\n", a.Severity, a.OldVersion, a.NewVersion)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

var severityNames = []string{"Info", "Low", "Medium", "High", "Critical"}

func severityName(s int) string {
	if s >= 0 && s < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("%d", s)
}

func markdown(res *types.AuditResult) string {
	var sb strings.Builder

	sb.WriteString("# Patch Advisories\n\n")
	fmt.Fprintf(&sb, "**Report:** `%s`\n", res.ReportName)
	if res.Source != "" {
		fmt.Fprintf(&sb, "**Source:** `%s`\n", res.Source)
	}
	fmt.Fprintf(&sb, "**Hosts scanned:** %d\n", res.HostCount)
	fmt.Fprintf(&sb, "**Findings:** %d\n\n", res.ItemCount)

	counts := make(map[int]int)
	for _, h := range res.Hosts {
		for _, a := range h.Advisories {
			counts[a.Severity]++
		}
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Severity | Count |\n")
	sb.WriteString("| :--- | :--- |\n")
	for s := len(severityNames) - 1; s >= 0; s-- {
		fmt.Fprintf(&sb, "| %s | %d |\n", severityNames[s], counts[s])
	}
	sb.WriteString("\n")

	sb.WriteString("## Advisories\n\n")
	if len(res.Hosts) == 0 {
		sb.WriteString("_No advisories._\n")
		return sb.String()
	}
	for _, h := range res.Hosts {
		fmt.Fprintf(&sb, "### %s\n\n", h.Host)
		if h.OperatingSystem != "" {
			fmt.Fprintf(&sb, "_%s_\n\n", h.OperatingSystem)
		}
		sb.WriteString("| Sev | Ecosystem | Installed | Fixed |\n")
		sb.WriteString("| :--- | :--- | :--- | :--- |\n")
		for _, a := range h.Advisories {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
				severityName(a.Severity), a.Ecosystem, escapeCell(a.OldVersion), escapeCell(a.NewVersion))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
