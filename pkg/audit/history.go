package audit

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/project-copacetic/nessus/pkg/store"
	"github.com/project-copacetic/nessus/pkg/utils"
)

// NewHistoryCmd lists the advisories recorded for a host by `audit --db`.
func NewHistoryCmd() *cobra.Command {
	var dbPath, host string
	cmd := &cobra.Command{
		Use:          "history",
		Short:        "Show the advisories recorded for a host",
		Example:      "nessus history --db history.db --host 192.168.1.10",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := store.Open(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := s.ListByHost(cmd.Context(), host)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), host, records)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database written by audit --db")
	cmd.Flags().StringVar(&host, "host", "", "Host name as it appears in the report")
	utils.MustMarkRequired(cmd, "db")
	utils.MustMarkRequired(cmd, "host")
	return cmd
}

func printHistory(w io.Writer, host string, records []store.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintf(w, "no advisories recorded for %s\n", host)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tRECORDED\tECOSYSTEM\tINSTALLED\tFIXED\tSEVERITY")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			r.Run, r.Time.UTC().Format(time.RFC3339), r.Advisory.Ecosystem, r.Advisory.OldVersion, r.Advisory.NewVersion, r.Advisory.Severity)
	}
	return tw.Flush()
}
