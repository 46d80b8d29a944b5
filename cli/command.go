package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kvesta/vulngate/config"
	"github.com/kvesta/vulngate/internal/vulnscan"
	"github.com/kvesta/vulngate/pkg/cache"
	"github.com/kvesta/vulngate/pkg/depgraph"
	"github.com/kvesta/vulngate/pkg/vulnlib"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rootCmd = &cobra.Command{
		Use:   "vulngate [OPTIONS]",
		Short: "Dependency vulnerability gate",
		Long: `Vulngate checks the dependencies of a build against a vulnerability index
and fails when any of them has a known vulnerability`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadSettings,
	}

	v        = viper.New()
	cfgFile  string
	settings *config.Settings
)

func Execute() error {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .vulngate.yaml)")
	flags.Bool("debug", false, "debug logging and HTTP dumps")
	flags.String("url", vulnlib.DefaultURL, "vulnerability service base URL")
	flags.Duration("timeout", vulnlib.DefaultTimeout, "vulnerability service timeout")
	flags.String("proxy", "", "proxy URL for the vulnerability service")
	flags.Bool("insecure", false, "skip verify the tls certificate")
	flags.Int("cache-size", cache.DefaultSize, "report cache capacity")
	flags.Duration("cache-idle", cache.DefaultIdle, "report cache idle expiry")
	flags.Bool("transitive", true, "check transitive dependencies")
	flags.StringSlice("include", nil, "only check artifacts matching groupId[:artifactId[:type[:version[:scope]]]]")
	flags.StringSlice("exclude", nil, "skip artifacts matching groupId[:artifactId[:type[:version[:scope]]]]")
	flags.Bool("offline", false, "skip the check")
	flags.Bool("best-effort", false, "evaluate cached reports when the vulnerability service fails")

	bindFlags(rootCmd, map[string]string{
		"debug":       "debug",
		"base_url":    "url",
		"timeout":     "timeout",
		"proxy":       "proxy",
		"insecure":    "insecure",
		"cache.size":  "cache-size",
		"cache.idle":  "cache-idle",
		"transitive":  "transitive",
		"include":     "include",
		"exclude":     "exclude",
		"offline":     "offline",
		"best_effort": "best-effort",
	})

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information and quit",
		Args:  NoArgs,
		// no settings needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.Version)
		},
	}

	rootCmd.AddCommand(check())
	rootCmd.AddCommand(serve())
	rootCmd.AddCommand(versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

// bindFlags binds config keys to persistent flags of cmd.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func loadSettings(cmd *cobra.Command, args []string) error {
	s, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}

	config.InitLogger(s.Debug)
	settings = s

	return nil
}

// newScanner builds the scanner of a run. Every module checked by it shares
// the client and its report cache.
func newScanner(s *config.Settings, reg prometheus.Registerer) (*vulnscan.Scanner, *vulnlib.Client, error) {
	filter, err := depgraph.NewFilter(s.Include, s.Exclude)
	if err != nil {
		return nil, nil, err
	}

	client, err := vulnlib.New(vulnlib.Options{
		BaseURL:   s.BaseURL,
		Timeout:   s.Timeout,
		Proxy:     s.Proxy,
		Insecure:  s.Insecure,
		UserAgent: config.UserAgent(),
		Debug:     s.Debug,
		Cache:     vulnlib.NewReportCache(s.Cache.Size, s.Cache.Idle),
		Metrics:   vulnlib.NewMetrics(reg),
	})
	if err != nil {
		return nil, nil, err
	}

	scanner := &vulnscan.Scanner{
		Rule: vulnscan.Rule{
			Transitive: s.Transitive,
			Filter:     filter,
			Offline:    s.Offline,
			BestEffort: s.BestEffort,
		},
		VulnDB: client,
	}

	return scanner, client, nil
}
