package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/soapd/pkg/cli/internal/output"
	"github.com/getmockd/soapd/pkg/config"
)

// ErrInvalidConfig is returned by validate for a configuration with errors.
var ErrInvalidConfig = errors.New("configuration is invalid")

// ValidateOutput is the JSON result of soapd validate.
type ValidateOutput struct {
	Valid  bool                     `json:"valid"`
	Path   string                   `json:"path"`
	Errors []config.ValidationError `json:"errors,omitempty"`
}

func newValidateCmd(g *globalFlags) *cobra.Command {
	var showResolved bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file without starting the server",
		Long: `Validate a soapd configuration file.

This command checks:
  - YAML or JSON syntax
  - Schema validation (required fields, valid values)
  - Message versions, paths and prefixes
  - Rule action patterns and condition expressions`,
		Example: `  # Validate soapd.yaml in the working directory
  soapd validate

  # Validate a specific file and print it with defaults applied
  soapd validate --config calc.yaml --show-resolved`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := loadConfig(g.configFile, false)
			out := ValidateOutput{Valid: err == nil, Path: path}
			if err != nil {
				var verrs *config.ValidationErrors
				if !errors.As(err, &verrs) {
					return err
				}
				out.Errors = verrs.Errors
			}

			if g.jsonOutput {
				if jerr := output.JSON(cmd.OutOrStdout(), out); jerr != nil {
					return jerr
				}
				if !out.Valid {
					return ErrInvalidConfig
				}
				return nil
			}

			if !out.Valid {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s:\n", path)
				for _, e := range out.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", e.Error())
				}
				return ErrInvalidConfig
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Configuration valid: %s\n", path)
			tw := output.Table(w)
			fmt.Fprintf(tw, "  listen\t%s\n", cfg.Server.Listen)
			fmt.Fprintf(tw, "  endpoint\t%s\n", cfg.Endpoint.Path)
			fmt.Fprintf(tw, "  versions\t%s\n", strings.Join(cfg.Endpoint.Versions, ", "))
			fmt.Fprintf(tw, "  rules\t%d\n", len(cfg.Endpoint.Rules))
			if len(cfg.Endpoint.Binders) > 0 {
				fmt.Fprintf(tw, "  binders\t%s\n", strings.Join(cfg.Endpoint.Binders, ", "))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if showResolved {
				data, err := config.ToYAML(cfg)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "\n%s", data)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showResolved, "show-resolved", false, "Print the configuration with defaults and environment references applied")
	return cmd
}
