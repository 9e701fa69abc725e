package commands

import (
	"context"
	"fmt"
	"io"

	"chatdock/internal/bootstrap"
	"chatdock/internal/config"
	"chatdock/internal/errors"
	"chatdock/internal/logger"

	"github.com/spf13/cobra"
)

// LaunchCommands creates the commands that drive the container
func LaunchCommands(deps *Deps) []*cobra.Command {
	commands := []*cobra.Command{}

	// chatdock launch
	launchCmd := &cobra.Command{
		Use:   "launch",
		Short: "Build the image and start the chat application",
		Long: `Write config.py and the Dockerfile, build the image, run the container and
wait until it is up. The local URL is printed once the application is ready.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := launchConfigFromFlags(cmd)
			if err != nil {
				return err
			}
			port, _ := cmd.Flags().GetInt("port")
			return runLaunch(cmd, deps, func(ctx context.Context) (*bootstrap.Result, error) {
				return deps.Service.Launch(ctx, cfg, port)
			})
		},
	}
	addLaunchConfigFlags(launchCmd)
	launchCmd.Flags().IntP("port", "p", 0, "Host port to publish on (default: session port or first free port)")
	commands = append(commands, launchCmd)

	// chatdock start
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the application, rebuilding only if the configuration changed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := launchConfigFromFlags(cmd)
			if err != nil {
				return err
			}
			return runLaunch(cmd, deps, func(ctx context.Context) (*bootstrap.Result, error) {
				return deps.Service.Start(ctx, cfg)
			})
		},
	}
	addLaunchConfigFlags(startCmd)
	commands = append(commands, startCmd)

	// chatdock restart
	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Run the last built image again without rebuilding",
		RunE: func(cmd *cobra.Command, args []string) error {
			port, _ := cmd.Flags().GetInt("port")
			return runLaunch(cmd, deps, func(ctx context.Context) (*bootstrap.Result, error) {
				return deps.Service.Restart(ctx, port)
			})
		},
	}
	restartCmd.Flags().IntP("port", "p", 0, "Host port to publish on (default: session port)")
	restartCmd.Flags().BoolP("quiet", "q", false, "Hide engine output")
	commands = append(commands, restartCmd)

	// chatdock stop
	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the container, keeping the image",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.Service.Stop(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Container stopped")
			return nil
		},
	}
	commands = append(commands, stopCmd)

	// chatdock reset
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove the container and the image",
		Long: `Stop and remove the container, delete the image and forget the last build.
The next start performs a full launch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.Service.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Container and image removed")
			return nil
		},
	}
	commands = append(commands, resetCmd)

	return commands
}

func addLaunchConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "Launch configuration file (.toml, .yaml or .json)")
	cmd.Flags().String("api-key", "", "API key (overrides the configuration file)")
	cmd.Flags().String("model", "", "Model name (overrides the configuration file)")
	cmd.Flags().String("proxy", "", "Proxy URL used for both http and https")
	cmd.Flags().BoolP("quiet", "q", false, "Hide engine output")
}

// launchConfigFromFlags loads the launch configuration file, if any, and
// applies the flag overrides on top
func launchConfigFromFlags(cmd *cobra.Command) (*config.LaunchConfig, error) {
	cfg := config.DefaultLaunchConfig()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.LoadLaunchConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if key, _ := cmd.Flags().GetString("api-key"); key != "" {
		cfg.APIKey = key
	}
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.Model = model
	}
	if proxy, _ := cmd.Flags().GetString("proxy"); proxy != "" {
		cfg.Proxies = config.Proxies{HTTP: proxy, HTTPS: proxy}
	}

	return cfg, nil
}

// runLaunch streams progress while fn runs and prints the URL on success
func runLaunch(cmd *cobra.Command, deps *Deps, fn func(ctx context.Context) (*bootstrap.Result, error)) error {
	if deps.Service == nil {
		return errors.New(errors.ErrInternal, "launch service is not available")
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	w := cmd.OutOrStdout()
	unsubscribe := deps.Service.Subscribe(progressPrinter(w, !quiet))
	defer unsubscribe()

	result, err := fn(cmd.Context())
	if err != nil {
		return err
	}

	printResult(w, result)
	logger.WithFields(logger.Fields{
		"url":  result.URL,
		"mode": result.Mode,
	}).Debug("Launch finished")
	return nil
}

func printResult(w io.Writer, result *bootstrap.Result) {
	fmt.Fprintf(w, "\n✓ chatgpt_academic is ready (%s)\n", result.Mode)
	fmt.Fprintf(w, "  Open %s in your browser\n", result.URL)
}
