package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/project-copacetic/nessus/pkg/audit"
	"github.com/project-copacetic/nessus/pkg/config"
	"github.com/project-copacetic/nessus/pkg/scan"
)

var version = "0.0.0"

func newRootCmd(v *viper.Viper) *cobra.Command {
	var (
		logLevel   string
		configFile string
	)
	rootCmd := &cobra.Command{
		Use:          "nessus",
		Short:        "Nessus scanner client and patch advisory audit",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			return config.ReadFile(v, configFile)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", log.InfoLevel.String(), "Log level (debug, info, warn, error)")
	flags.StringVar(&configFile, "config", "", "Config file (YAML)")
	flags.String(config.KeyHost, "", "Scanner URL, e.g. https://nessus.example.com:8834 (env NESSUS_HOST)")
	flags.String(config.KeyToken, "", "API access key (env NESSUS_TOKEN)")
	flags.String(config.KeySecret, "", "API secret key (env NESSUS_SECRET)")
	flags.Bool(config.KeyInsecure, false, "Skip TLS certificate verification")
	flags.String(config.KeyCAFile, "", "CA certificate bundle for the scanner's TLS certificate")
	flags.Duration(config.KeyTimeout, 0, "HTTP request timeout (default 1m)")
	for _, key := range []string{config.KeyHost, config.KeyToken, config.KeySecret, config.KeyInsecure, config.KeyCAFile, config.KeyTimeout} {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(
		audit.NewAuditCmd(v),
		audit.NewParseCmd(),
		audit.NewHistoryCmd(),
		scan.NewScanCmd(v),
		scan.NewPoliciesCmd(v),
	)
	return rootCmd
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	v, err := config.New()
	if err != nil {
		log.Fatal(err)
	}
	if err := newRootCmd(v).Execute(); err != nil {
		os.Exit(1)
	}
}
