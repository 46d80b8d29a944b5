package cli

import (
	"time"

	"github.com/kvesta/vulngate/internal/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func serve() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve dependency checks over HTTP",
		Long: `Examples:
  # Serve on port 8080
  $ vulngate serve --addr :8080

  # Check a dependency tree
  $ curl -X POST --data-binary @deps.json 'http://localhost:8080/v1/check?transitive=true'`,
		Args: NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			scanner, client, err := newScanner(settings, reg)
			if err != nil {
				return err
			}

			srv := &server.Server{
				Scanner:  scanner,
				Cache:    client.Cache(),
				Sweep:    settings.Cache.Sweep,
				Gatherer: reg,
			}

			return srv.ListenAndServe(cmd.Context(), settings.Addr)
		},
	}

	serveCmd.PersistentFlags().String("addr", ":8080", "listen address")
	serveCmd.PersistentFlags().Duration("sweep", 30*time.Second, "interval of the report cache sweep")
	bindFlags(serveCmd, map[string]string{
		"addr":        "addr",
		"cache.sweep": "sweep",
	})

	return serveCmd
}
