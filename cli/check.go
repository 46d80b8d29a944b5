package cli

import (
	"context"
	"os"

	"github.com/kvesta/vulngate/config"
	"github.com/kvesta/vulngate/internal/report"
	"github.com/kvesta/vulngate/pkg/packages"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func check() *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check dependencies for known vulnerabilities",
		Long: `Examples:
  # Check the output of mvn dependency:tree
  $ mvn dependency:tree | vulngate check maven -

  # Check only direct dependencies
  $ vulngate check maven --transitive=false deps.txt

  # Check a dependency tree document
  $ vulngate check tree deps.yaml

  # Check the libraries bundled in archives, four at a time
  $ vulngate check jar --parallel 4 app.war api.jar

  # Skip test dependencies and write a JSON report
  $ vulngate check maven --exclude '*:*:*:*:test' -o output deps.txt`,
		Args: NoArgs,
	}

	subcommands := []struct {
		kind  packages.Kind
		short string
	}{
		{kind: packages.KindTree, short: "input from YAML or JSON dependency tree documents"},
		{kind: packages.KindMaven, short: "input from mvn dependency:tree output"},
		{kind: packages.KindJar, short: "input from JAR, WAR or EAR archives"},
	}

	for _, sub := range subcommands {
		checkCmd.AddCommand(&cobra.Command{
			Use:   string(sub.kind) + " FILE...",
			Short: sub.short,
			Args:  RequireFiles,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCheck(cmd.Context(), sub.kind, args)
			},
		})
	}

	checkCmd.PersistentFlags().StringP("output", "o", "", "output file location, \"output\" for ./output/<date>.json")
	checkCmd.PersistentFlags().Int("parallel", 1, "number of modules checked concurrently")
	bindFlags(checkCmd, map[string]string{
		"output":   "output",
		"parallel": "parallel",
	})

	return checkCmd
}

func runCheck(ctx context.Context, kind packages.Kind, paths []string) error {
	var result *multierror.Error

	modules := []*packages.Module{}
	for _, path := range paths {
		found, err := packages.Load(kind, path)
		if err != nil {
			logrus.Errorf("Skipping %s: %v", path, err)
			result = multierror.Append(result, err)
			continue
		}
		modules = append(modules, found...)
	}

	if len(modules) == 0 {
		return result.ErrorOrNil()
	}

	scanner, _, err := newScanner(settings, nil)
	if err != nil {
		return err
	}

	verdicts, err := scanner.ScanModules(ctx, modules, settings.Parallel)
	if err != nil {
		result = multierror.Append(result, err)
	}
	verdicts = lo.Compact(verdicts)

	report.ResolveVerdicts(os.Stdout, verdicts)

	if settings.Output != "" {
		if _, err := report.VerdictsToJson(settings.Output, verdicts); err != nil {
			result = multierror.Append(result, err)
		}
	}

	for _, v := range verdicts {
		if err := v.Err(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if result.ErrorOrNil() == nil {
		logrus.Info(config.Green("No vulnerable dependencies detected"))
		return nil
	}

	return errors.Wrap(result, "vulnerability check failed")
}
