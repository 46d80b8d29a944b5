package main

import (
	"os"

	"github.com/kvesta/vulngate/cli"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := cli.Execute(); err != nil {
		logrus.Errorf("%v", err)
		os.Exit(1)
	}
}
