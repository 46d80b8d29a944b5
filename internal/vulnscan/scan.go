package vulnscan

import (
	"context"

	"github.com/kvesta/vulngate/config"
	"github.com/kvesta/vulngate/internal/report"
	"github.com/kvesta/vulngate/pkg/depgraph"
	"github.com/kvesta/vulngate/pkg/packages"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Scan checks the dependencies of one module. A lookup failure is returned
// as an error unless the rule is best-effort, in which case the verdict
// covers the cached reports only and is marked inconclusive.
func (s *Scanner) Scan(ctx context.Context, m *packages.Module) (*report.Verdict, error) {
	name := m.Name()

	if s.Rule.Offline {
		logrus.Warnf("Skipping vulnerability evaluation of %s; Offline mode detected", name)
		v := report.Pass(0)
		v.Module = name
		v.Skipped = true
		return v, nil
	}

	reduced := depgraph.Reduce(m.Root.Prune(s.Rule.Filter), s.Rule.Transitive)
	coords := reduced.Coordinates

	if len(coords) == 0 {
		logrus.Debugf("No dependencies to check in %s", name)
		v := report.Pass(0)
		v.Module = name
		return v, nil
	}

	logrus.Infof("Checking for vulnerabilities: %s", config.Yellow(name))
	for _, c := range coords {
		logrus.Infof("  %s", c)
	}

	inconclusive := false
	unchecked := []string{}
	reports, err := s.VulnDB.Lookup(ctx, coords)
	if err != nil {
		if !s.Rule.BestEffort {
			return nil, errors.Wrapf(err, "check %s", name)
		}

		logrus.Warnf("Unable to look up vulnerabilities of %s, evaluating cached reports only: %v", name, err)
		reports = s.VulnDB.Cached(coords)
		inconclusive = true

		missing, _ := lo.Difference(coords, reports.Coordinates())
		for _, c := range missing {
			logrus.Warnf("  no cached report for %s", c)
			unchecked = append(unchecked, c.String())
		}
	}

	v := report.Evaluate(reports, reduced.Origins, s.VulnDB)
	v.Module = name
	v.Inconclusive = inconclusive
	if len(unchecked) > 0 {
		v.Unchecked = unchecked
	}

	if v.Passed {
		logrus.Infof("%s: %s", name, config.Green("no vulnerable dependencies"))
	} else {
		logrus.Warnf("%s: %s", name, config.Red(len(v.Findings), " vulnerable dependencies"))
	}

	return v, nil
}

// ScanModules checks modules with at most parallel concurrent checks. The
// verdicts follow the order of modules; a module that failed with an error
// has a nil verdict and its error is part of the returned *multierror.Error.
func (s *Scanner) ScanModules(ctx context.Context, modules []*packages.Module, parallel int) ([]*report.Verdict, error) {
	if parallel < 1 {
		parallel = 1
	}

	verdicts := make([]*report.Verdict, len(modules))
	sem := make(chan struct{}, parallel)

	g := &multierror.Group{}
	for i, m := range modules {
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			v, err := s.Scan(ctx, m)
			if err != nil {
				return err
			}

			verdicts[i] = v
			return nil
		})
	}

	return verdicts, g.Wait().ErrorOrNil()
}
