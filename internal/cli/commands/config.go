package commands

import (
	"fmt"
	"os"

	"chatdock/internal/config"
	"chatdock/internal/constants"
	"chatdock/internal/logger"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// ConfigCommands creates configuration management commands
func ConfigCommands(deps *Deps, fs afero.Fs) []*cobra.Command {
	commands := []*cobra.Command{}

	// chatdock config show
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective launcher settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := toml.Marshal(deps.Settings)
			if err != nil {
				return fmt.Errorf("failed to encode settings: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", deps.SettingsPath, data)
			return nil
		},
	}
	commands = append(commands, showCmd)

	// chatdock config path
	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), deps.SettingsPath)
			return nil
		},
	}
	commands = append(commands, pathCmd)

	// chatdock config init
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default settings file",
		Long: `Write config.toml with the default launcher settings. With --launch, also
write a launch configuration template to fill in the API key.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			launchPath, _ := cmd.Flags().GetString("launch")

			if err := initSettings(cmd, deps.SettingsPath, force); err != nil {
				return err
			}
			if launchPath != "" {
				return initLaunchConfig(cmd, fs, launchPath, force)
			}
			return nil
		},
	}
	initCmd.Flags().BoolP("force", "f", false, "Overwrite existing files")
	initCmd.Flags().String("launch", "", "Also write a launch configuration template to this path (.toml)")
	commands = append(commands, initCmd)

	return commands
}

func initSettings(cmd *cobra.Command, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		fmt.Fprintf(cmd.OutOrStdout(), "Settings already exist at %s (use --force to overwrite)\n", path)
		return nil
	}

	if err := config.DefaultGlobalConfig().Save(path); err != nil {
		return err
	}
	logger.WithFields(logger.Fields{"path": path}).Debug("Settings written")
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Settings written to %s\n", path)
	return nil
}

func initLaunchConfig(cmd *cobra.Command, fs afero.Fs, path string, force bool) error {
	if exists, _ := afero.Exists(fs, path); exists && !force {
		return fmt.Errorf("launch configuration already exists at %s (use --force to overwrite)", path)
	}

	data, err := toml.Marshal(config.DefaultLaunchConfig())
	if err != nil {
		return fmt.Errorf("failed to encode launch configuration: %w", err)
	}

	// the template will hold the API key once filled in
	if err := afero.WriteFile(fs, path, data, constants.SecureFilePermissions); err != nil {
		return fmt.Errorf("failed to write launch configuration: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ Launch configuration template written to %s\n", path)
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintf(w, "  1. Set api_key in %s\n", path)
	fmt.Fprintf(w, "  2. Launch: chatdock launch --config %s\n", path)
	return nil
}
