package commands

import (
	"fmt"

	"chatdock/internal/artifact"
	"chatdock/internal/constants"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// RenderCommand previews or writes the launch artifacts without touching
// the engine
func RenderCommand(deps *Deps, fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print config.py and the Dockerfile a launch would write",
		Long: `Render the generated artifacts from a launch configuration. With --out the
files are written to that directory instead of printed, which is useful for
building the image by hand.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := launchConfigFromFlags(cmd)
			if err != nil {
				return err
			}

			port, _ := cmd.Flags().GetInt("port")
			if port == 0 && deps.Service != nil {
				port = deps.Service.Session().Port
			}
			if port == 0 {
				port = deps.Settings.Launch.StartPort
			}
			doc := cfg.WithPort(port).Document()

			w := cmd.OutOrStdout()
			if dir, _ := cmd.Flags().GetString("out"); dir != "" {
				paths, err := artifact.NewWriter(fs, deps.Settings.BuildTemplate()).Write(dir, doc)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "✓ Wrote %s\n", paths.Config)
				fmt.Fprintf(w, "✓ Wrote %s\n", paths.Dockerfile)
				return nil
			}

			dockerfile, err := artifact.RenderBuildDescriptor(deps.Settings.BuildTemplate())
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "# %s\n%s\n\n", constants.ConfigFileName, artifact.RenderConfig(doc))
			fmt.Fprintf(w, "# %s\n%s", constants.BuildFileName, dockerfile)
			return nil
		},
	}
	addLaunchConfigFlags(cmd)
	cmd.Flags().IntP("port", "p", 0, "WEB_PORT to render (default: session port or start port)")
	cmd.Flags().StringP("out", "o", "", "Write the files into this directory")
	return cmd
}
