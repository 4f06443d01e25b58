package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/jjazzboss/JJazzLab-sub029/internal/config"
)

// configView is the printable form of the resolved configuration.
type configView struct {
	cfg  config.Config
	yaml []byte
}

func (v configView) MarshalJSON() ([]byte, error) {
	return v.cfg.JSON()
}

func (v configView) WriteText(w io.Writer, _ bool) {
	_, _ = w.Write(v.yaml)
}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after applying defaults and the file given with
--config. The output is itself a valid config file.

Exit codes:
  0 - Success
  2 - Command error (unreadable or invalid config file)

Examples:
  leadsheet config
  leadsheet config --config ./leadsheet.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := rootOpts.Config.YAML()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to render config", err)
			}
			return rootOpts.formatter(cmd).Success(configView{cfg: rootOpts.Config, yaml: data})
		},
	}
	return cmd
}
