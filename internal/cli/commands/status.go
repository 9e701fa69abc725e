package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"chatdock/internal/bootstrap"
	"chatdock/internal/constants"
	"chatdock/internal/db"
	"chatdock/internal/errors"

	"github.com/spf13/cobra"
)

// StatusCommands creates the inspection commands
func StatusCommands(deps *Deps) []*cobra.Command {
	commands := []*cobra.Command{}

	// chatdock status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the launcher and container status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Service == nil {
				return errors.New(errors.ErrInternal, "launch service is not available")
			}
			upstream, _ := cmd.Flags().GetBool("upstream")
			asJSON, _ := cmd.Flags().GetBool("json")

			st := deps.Service.Status(cmd.Context(), upstream)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), st)
			}
			printStatus(cmd.OutOrStdout(), st, upstream)
			return nil
		},
	}
	statusCmd.Flags().Bool("upstream", false, "Check whether the upstream repository moved since the last build")
	statusCmd.Flags().Bool("json", false, "Print as JSON")
	commands = append(commands, statusCmd)

	// chatdock history
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List past launches",
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Launches == nil {
				return errors.New(errors.ErrInternal, "launch history is not available")
			}

			opts := db.DefaultPaginationOptions()
			opts.PageSize, _ = cmd.Flags().GetInt("limit")
			opts.Page, _ = cmd.Flags().GetInt("page")
			if err := opts.Validate(); err != nil {
				return errors.ValidationFailed("pagination", fmt.Sprintf("page=%d limit=%d", opts.Page, opts.PageSize), err.Error())
			}

			launches, total, err := deps.Launches.List(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), db.NewPaginatedResponse(launches, opts, total))
			}
			printHistory(cmd.OutOrStdout(), launches, total)
			return nil
		},
	}
	historyCmd.Flags().IntP("limit", "n", constants.DefaultHistoryLimit, "Number of launches to show")
	historyCmd.Flags().Int("page", 1, "Page to show")
	historyCmd.Flags().Bool("json", false, "Print as JSON")
	commands = append(commands, historyCmd)

	// chatdock port
	portCmd := &cobra.Command{
		Use:   "port",
		Short: "Print the first free host port",
		Long: `Probe host ports starting at --start (default: the configured start port)
and print the first one that can be bound.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, _ := cmd.Flags().GetInt("start")
			if start == 0 {
				start = deps.Settings.Launch.StartPort
			}
			port, err := deps.Ports.FindFreePort(start)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), port)
			return nil
		},
	}
	portCmd.Flags().Int("start", 0, "Port to start probing at")
	commands = append(commands, portCmd)

	return commands
}

func printStatus(w io.Writer, st *bootstrap.Status, upstream bool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "State:\t%s\n", st.State)

	switch {
	case st.EngineError != "":
		fmt.Fprintf(tw, "Container:\tunknown (%s)\n", st.EngineError)
	case st.Container == nil:
		fmt.Fprintf(tw, "Container:\tnot running\n")
	default:
		fmt.Fprintf(tw, "Container:\t%s (%s)\n", st.Container.Name, st.Container.Status)
	}

	if st.URL != "" {
		fmt.Fprintf(tw, "URL:\t%s\n", st.URL)
	}
	if st.Session.Port != 0 {
		fmt.Fprintf(tw, "Port:\t%d\n", st.Session.Port)
	}

	built := "no"
	if st.Session.Built {
		built = "yes"
		if st.Session.UpstreamRevision != "" {
			built += " (upstream " + st.Session.UpstreamRevision + ")"
		}
	}
	fmt.Fprintf(tw, "Image built:\t%s\n", built)

	if upstream && st.UpstreamHead != "" {
		moved := "no"
		if st.UpstreamChanged {
			moved = "yes, run 'chatdock reset' then 'chatdock launch' to rebuild"
		}
		fmt.Fprintf(tw, "Upstream HEAD:\t%s\n", st.UpstreamHead)
		fmt.Fprintf(tw, "Upstream moved:\t%s\n", moved)
	}
}

func printHistory(w io.Writer, launches []*db.Launch, total int) {
	if len(launches) == 0 {
		fmt.Fprintln(w, "No launches recorded")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tMODE\tPORT\tSTATUS\tDURATION\tDETAIL")
	for _, l := range launches {
		detail := l.URL
		if l.Status == db.LaunchStatusFailed {
			detail = l.ErrorCode
		}
		duration := "-"
		if l.FinishedAt != nil {
			duration = l.Duration().Round(time.Second).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			l.StartedAt.Local().Format("2006-01-02 15:04:05"),
			l.Mode,
			l.Port,
			l.Status,
			duration,
			detail,
		)
	}
	tw.Flush()

	if total > len(launches) {
		fmt.Fprintf(w, "\nShowing %d of %d launches\n", len(launches), total)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
