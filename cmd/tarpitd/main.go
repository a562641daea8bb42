package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tarpitd/internal/common/fsutil"
	"tarpitd/internal/config"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tarpitd:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath      string
		addr         string
		printDefault bool
	)
	root := &cobra.Command{
		Use:     "tarpitd",
		Short:   "HTTP honeypot that drowns scrapers in endless filler",
		Long: `tarpitd accepts requests on configured bait routes and answers with an
effectively unbounded stream of plausible-looking filler content, wasting
the time and bandwidth of automated scrapers while spending next to none
of its own.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if printDefault {
				s, err := config.DefaultTOML()
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), s)
				return nil
			}
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return run(cfg)
		},
	}
	root.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (.toml/.yaml/.json); built-in defaults when omitted")
	root.Flags().StringVar(&addr, "addr", envOr("TARPITD_ADDR", ""), "override http.addr, e.g. :8080")
	root.Flags().BoolVar(&printDefault, "print-default-config", false, "print the default configuration as TOML and exit")
	return root
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	if !fsutil.PathExists(path) {
		return config.Default(), fmt.Errorf("config file %s does not exist", path)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
