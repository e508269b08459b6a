package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/openvex/go-vex/pkg/vex"

	"github.com/project-copacetic/nessus/pkg/types"
)

const vexAuthor = "nessus audit"

// For testing.
var now = time.Now

// writeVEX emits a single document with one affected statement per
// vulnerability of each finding that produced advisories, across all results.
// Findings without CVEs are identified by plugin id.
func writeVEX(w io.Writer, results ...*types.AuditResult) error {
	doc := vex.New()
	ts := now()
	doc.Metadata.Author = vexAuthor
	doc.Metadata.Tooling = vexAuthor
	doc.Metadata.Timestamp = &ts
	names := make([]string, 0, len(results))
	for _, res := range results {
		names = append(names, res.ReportName)
	}
	doc.Metadata.ID = fmt.Sprintf("nessus-audit/%s/%d", strings.Join(names, "+"), ts.Unix())

	for _, res := range results {
		addStatements(&doc, res)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal vex document: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func addStatements(doc *vex.VEX, res *types.AuditResult) {
	for _, f := range res.Findings {
		names := f.CVEs
		if len(names) == 0 {
			names = []string{"nessus-plugin-" + f.PluginID}
		}
		product := vex.Product{
			Component: vex.Component{ID: f.Host},
		}
		for _, a := range f.Advisories {
			product.Subcomponents = append(product.Subcomponents, vex.Subcomponent{
				Component: vex.Component{ID: a.OldVersion},
			})
		}
		action := actionStatement(f.Advisories)
		for _, name := range names {
			doc.Statements = append(doc.Statements, vex.Statement{
				Vulnerability:   vex.Vulnerability{Name: vex.VulnerabilityID(name), Description: f.PluginName},
				Products:        []vex.Product{product},
				Status:          vex.StatusAffected,
				ActionStatement: action,
			})
		}
	}
}

func actionStatement(advisories types.Advisories) string {
	parts := make([]string, 0, len(advisories))
	for _, a := range advisories {
		parts = append(parts, fmt.Sprintf("upgrade %s to %s", a.OldVersion, a.NewVersion))
	}
	return strings.Join(parts, "; ")
}
