package config

import (
	"fmt"

	"github.com/fatih/color"
)

// Version is set at build time.
var Version = "v0.1.0"

var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	Pink   = color.New(color.FgMagenta).SprintFunc()
)

// UserAgent identifies vulngate to the vulnerability service.
func UserAgent() string {
	return fmt.Sprintf("vulngate/%s", Version)
}
