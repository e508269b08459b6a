package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/project-copacetic/nessus/pkg/advisory"
	"github.com/project-copacetic/nessus/pkg/config"
	"github.com/project-copacetic/nessus/pkg/output"
	"github.com/project-copacetic/nessus/pkg/report"
	"github.com/project-copacetic/nessus/pkg/store"
	"github.com/project-copacetic/nessus/pkg/types"
)

type auditArgs struct {
	reportPath       string
	reportDir        string
	format           string
	output           string
	dbPath           string
	noLaunch         bool
	failOnAdvisories bool
}

// For testing.
var newRemote = func(cfg *config.Config) (Remote, error) {
	return cfg.NewClient()
}

func NewAuditCmd(v *viper.Viper) *cobra.Command {
	ua := auditArgs{}
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Extract patch advisories from scan results",
		Long: `Extract the installed/fixed version pairs reported by the scanner's local security checks.
Reads an exported .nessus report (--report), every report in a directory (--report-dir),
or launches a scan on the scanner and audits its results (--scan or NESSUS_SCAN).`,
		Example:      "nessus audit --report weekly.nessus --format markdown",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return runAudit(cmd.Context(), cmd.OutOrStdout(), cfg, &ua)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&ua.reportPath, "report", "r", "", "Exported .nessus report to audit")
	flags.StringVar(&ua.reportDir, "report-dir", "", "Directory of exported .nessus reports to audit")
	flags.Uint64("scan", 0, "Id of the scan to launch and audit")
	flags.StringVarP(&ua.format, "format", "f", output.FormatText, "Output format: text, json, yaml, markdown or openvex")
	flags.StringVarP(&ua.output, "output", "o", "", "Write the results to this file instead of stdout")
	flags.StringVar(&ua.dbPath, "db", "", "Record advisories in this SQLite database")
	flags.BoolVar(&ua.noLaunch, "no-launch", false, "Export the latest results of --scan without launching it")
	flags.BoolVar(&ua.failOnAdvisories, "fail-on-advisories", false, "Exit with an error if any advisory is found")
	cmd.MarkFlagsMutuallyExclusive("report", "report-dir")

	if err := v.BindPFlag(config.KeyScan, flags.Lookup("scan")); err != nil {
		panic(err)
	}
	return cmd
}

func runAudit(ctx context.Context, stdout io.Writer, cfg *config.Config, ua *auditArgs) error {
	opts := &Options{
		ReportPath: ua.reportPath,
		ReportDir:  ua.reportDir,
		ScanID:     cfg.ScanID,
		NoLaunch:   ua.noLaunch,
		ScanWait:   cfg.ScanPoll.Options(),
		ExportWait: cfg.ExportPoll.Options(),
	}

	var (
		results []*types.AuditResult
		runErr  error
	)
	if opts.ReportPath != "" || opts.ReportDir != "" {
		results, runErr = Run(ctx, opts)
	} else {
		if opts.ScanID == 0 {
			return fmt.Errorf("one of --report, --report-dir or --scan is required")
		}
		remote, err := newRemote(cfg)
		if err != nil {
			return err
		}
		res, err := RunRemote(ctx, remote, opts)
		if err != nil {
			return err
		}
		results = []*types.AuditResult{res}
	}
	if len(results) == 0 {
		return runErr
	}

	w := stdout
	if ua.output != "" {
		f, err := os.Create(ua.output)
		if err != nil {
			return errors.Wrap(err, "failed to create output file")
		}
		defer f.Close()
		w = f
	}
	if err := output.WriteAll(w, ua.format, results); err != nil {
		return err
	}

	if ua.dbPath != "" {
		if err := record(ctx, ua.dbPath, results); err != nil {
			return err
		}
	}

	if runErr != nil {
		return runErr
	}
	if ua.failOnAdvisories {
		for _, res := range results {
			if res.Total() > 0 {
				return ErrAdvisoriesFound
			}
		}
	}
	return nil
}

func record(ctx context.Context, path string, results []*types.AuditResult) error {
	s, err := store.Open(ctx, path)
	if err != nil {
		return err
	}
	defer s.Close()

	stamp := time.Now().UTC().Format(time.RFC3339)
	for _, res := range results {
		run := res.ReportName + "@" + stamp
		if err := s.Save(ctx, run, res.Hosts); err != nil {
			return err
		}
	}
	log.Infof("Recorded %d reports in %s", len(results), path)
	return nil
}

// NewParseCmd prints a summary of an exported report.
func NewParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "parse <file>",
		Short:        "Print a summary of an exported .nessus report",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			nd, err := report.NewNessusParser().Parse(args[0])
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), nd, args[0])
		},
	}
}

func printSummary(w io.Writer, nd *report.NessusClientData, source string) error {
	res, err := Analyze(nd, source, advisory.New(advisory.DefaultTable()))
	if err != nil {
		return err
	}
	perHost := make(map[string]int, len(res.Hosts))
	for _, h := range res.Hosts {
		perHost[h.Host] = len(h.Advisories)
	}

	fmt.Fprintf(w, "%s (policy %q): %d hosts, %d findings\n", nd.Report.Name, nd.Policy.Name, len(nd.Report.Hosts), nd.Report.ItemCount())
	for i := range nd.Report.Hosts {
		h := &nd.Report.Hosts[i]
		fmt.Fprintf(w, "\t%s: %d findings, %d advisories", h.Name, len(h.Items), perHost[h.Name])
		if osName := h.OperatingSystem(); osName != "" {
			fmt.Fprintf(w, " [%s]", osName)
		}
		fmt.Fprintln(w)
	}
	return nil
}
