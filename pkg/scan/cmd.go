// Package scan provides the commands that manage scans on the scanner.
package scan

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/project-copacetic/nessus/pkg/client"
	"github.com/project-copacetic/nessus/pkg/config"
)

// API is the part of the scanner API the scan commands use.
type API interface {
	client.StatusQuerier
	ListPolicies(ctx context.Context) (*client.PolicyResponse, error)
	LaunchScan(ctx context.Context, id uint64) (*client.ScanLaunch, error)
	StopScan(ctx context.Context, id uint64) error
	PauseScan(ctx context.Context, id uint64) error
	ResumeScan(ctx context.Context, id uint64) error
	DeleteScan(ctx context.Context, id uint64) error
	ListScans(ctx context.Context) (*client.ScanList, error)
	ListScanFolder(ctx context.Context, folderID uint64) (*client.ScanList, error)
	ExportScanAs(ctx context.Context, scanID uint64, format string) (*client.ExportToken, error)
	DownloadExportRaw(ctx context.Context, scanID, fileID uint64) ([]byte, error)
}

// For testing.
var newAPI = func(cfg *config.Config) (API, error) {
	return cfg.NewClient()
}

func connect(v *viper.Viper) (*config.Config, API, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}
	api, err := newAPI(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, api, nil
}

func parseIDs(args []string) ([]uint64, error) {
	ids := make([]uint64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid scan id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// NewScanCmd returns the "scan" command group.
func NewScanCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Manage scans",
	}
	cmd.AddCommand(
		newLaunchCmd(v),
		newControlCmd(v, "stop", "Stop a running scan", API.StopScan),
		newControlCmd(v, "pause", "Pause a running scan", API.PauseScan),
		newControlCmd(v, "resume", "Resume a paused scan", API.ResumeScan),
		newControlCmd(v, "delete", "Delete a scan", API.DeleteScan),
		newDetailsCmd(v),
		newListCmd(v),
		newExportCmd(v),
	)
	return cmd
}

func newLaunchCmd(v *viper.Viper) *cobra.Command {
	var waitDone bool
	cmd := &cobra.Command{
		Use:          "launch <id>...",
		Short:        "Launch one or more scans",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			cfg, api, err := connect(v)
			if err != nil {
				return err
			}
			return launch(cmd.Context(), cmd.OutOrStdout(), api, ids, waitDone, cfg)
		},
	}
	cmd.Flags().BoolVar(&waitDone, "wait", false, "Wait until every scan has finished")
	return cmd
}

// launch starts every scan concurrently, optionally waiting for each to
// finish. The first failure cancels the remaining waits.
func launch(ctx context.Context, w io.Writer, api API, ids []uint64, waitDone bool, cfg *config.Config) error {
	g, ctx := errgroup.WithContext(ctx)
	launches := make([]*client.ScanLaunch, len(ids))
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			l, err := api.LaunchScan(ctx, id)
			if err != nil {
				return errors.Wrapf(err, "failed to launch scan %d", id)
			}
			launches[i] = l
			if !waitDone {
				return nil
			}
			if err := l.Wait(ctx, api, cfg.ScanPoll.Options()); err != nil {
				return errors.Wrapf(err, "scan %d did not finish", id)
			}
			log.Infof("Scan %d finished", id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, l := range launches {
		fmt.Fprintf(w, "%d\t%s\n", l.ScanID, l.ScanUUID)
	}
	return nil
}

func newControlCmd(v *viper.Viper, name, short string, action func(API, context.Context, uint64) error) *cobra.Command {
	return &cobra.Command{
		Use:          name + " <id>",
		Short:        short,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			_, api, err := connect(v)
			if err != nil {
				return err
			}
			if err := action(api, cmd.Context(), ids[0]); err != nil {
				return errors.Wrapf(err, "failed to %s scan %d", name, ids[0])
			}
			log.Infof("Scan %d: %s requested", ids[0], name)
			return nil
		},
	}
}

func newDetailsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:          "details <id>",
		Short:        "Show the status and host summary of a scan",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			_, api, err := connect(v)
			if err != nil {
				return err
			}
			d, err := api.ScanDetails(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (%d): %s\n", d.Info.Name, d.Info.ObjectID, d.Info.Status)
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "HOST\tCRITICAL\tHIGH\tMEDIUM\tLOW\tINFO")
			for _, h := range d.Hosts {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n", h.Hostname, h.Critical, h.High, h.Medium, h.Low, h.Info)
			}
			return tw.Flush()
		},
	}
}

func newListCmd(v *viper.Viper) *cobra.Command {
	var (
		folder uint64
		name   string
	)
	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List scans",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, api, err := connect(v)
			if err != nil {
				return err
			}
			var list *client.ScanList
			if cmd.Flags().Changed("folder") {
				list, err = api.ListScanFolder(cmd.Context(), folder)
			} else {
				list, err = api.ListScans(cmd.Context())
			}
			if err != nil {
				return err
			}
			scans := list.Scans
			if name != "" {
				scans = list.ByName(name)
				if len(scans) == 0 {
					return fmt.Errorf("no scan named %q", name)
				}
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFOLDER\tSTATUS\tNAME")
			for _, s := range scans {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", s.ID, s.FolderID, s.Status, s.Name)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Uint64Var(&folder, "folder", 0, "Only list scans of this folder")
	cmd.Flags().StringVar(&name, "name", "", "Only list scans with this name")
	return cmd
}

func newExportCmd(v *viper.Viper) *cobra.Command {
	var (
		out      string
		format   string
		waitDone bool
	)
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export the latest results of a scan to a file",
		Long: `Request an export of the latest results of a scan, wait until the scanner has
prepared it and download it to --out. With --wait=false the export is only
requested and its file id and token are printed.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			if waitDone && out == "" {
				return fmt.Errorf("--out is required unless --wait=false")
			}
			cfg, api, err := connect(v)
			if err != nil {
				return err
			}
			if format == "" {
				format = cfg.ExportFormat
			}
			return export(cmd.Context(), cmd.OutOrStdout(), api, ids[0], format, out, waitDone, cfg)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "File to write the export to")
	cmd.Flags().StringVar(&format, "format", "", "Export format (default from config: nessus)")
	cmd.Flags().BoolVar(&waitDone, "wait", true, "Wait for the export and download it")
	return cmd
}

func export(ctx context.Context, w io.Writer, api API, id uint64, format, out string, waitDone bool, cfg *config.Config) error {
	token, err := api.ExportScanAs(ctx, id, format)
	if err != nil {
		return errors.Wrapf(err, "failed to export scan %d", id)
	}
	if !waitDone {
		_, err := fmt.Fprintf(w, "%d\t%d\t%s\n", id, token.File, token.Token)
		return err
	}
	if err := token.Wait(ctx, api, cfg.ExportPoll.Options()); err != nil {
		return errors.Wrapf(err, "export %d of scan %d not ready", token.File, id)
	}
	data, err := api.DownloadExportRaw(ctx, id, token.File)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write export")
	}
	log.Infof("Wrote export of scan %d to %s (%d bytes)", id, out, len(data))
	return nil
}

// NewPoliciesCmd lists the policy templates scans can be created from.
func NewPoliciesCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:          "policies",
		Short:        "List policy templates",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, api, err := connect(v)
			if err != nil {
				return err
			}
			p, err := api.ListPolicies(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTITLE\tUUID")
			for _, t := range p.Templates {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, t.Title, t.UUID)
			}
			return tw.Flush()
		},
	}
}
