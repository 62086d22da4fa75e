package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	jsonOutput bool
	configFile string
}

// NewRootCmd builds the soapd command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "soapd",
		Short: "soapd hosts SOAP services behind an extensible filter pipeline",
		Long: `soapd serves SOAP 1.1 and 1.2 endpoints, with optional WS-Addressing, and
runs every exchange through configurable message and operation filters.

Configuration is read from --config, the SOAPD_CONFIG environment variable,
or soapd.yaml in the working directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&g.jsonOutput, "json", false, "Output command results in JSON format")
	root.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "Path to the configuration file")

	root.AddCommand(newServeCmd(g), newValidateCmd(g), newVersionCmd(g))
	return root
}

// Main runs the CLI with os.Args and returns the process exit code.
func Main() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
