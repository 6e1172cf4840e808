package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noveltylab/priorart/pkg/otel"
)

// checkCmd runs one check from the command line
func checkCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "check <idea>",
		Short: "Check one invention idea from the command line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := otel.Init(otel.Config{
				ServiceName: "priorart-cli",
				Environment: cfg.Otel.Environment,
				Enabled:     cfg.Otel.TracingEnabled,
			})
			if err != nil {
				return err
			}
			slog.SetDefault(res.Logger)
			defer res.Shutdown(cmd.Context()) //nolint:errcheck

			ctrl, err := buildController()
			if err != nil {
				return err
			}

			idea := strings.TrimSpace(strings.Join(args, " "))
			if idea == "" {
				return fmt.Errorf("idea must not be empty")
			}

			st, err := ctrl.Run(cmd.Context(), idea)
			if err != nil {
				return err
			}

			fmt.Println(st.Summary())

			if verbose {
				fmt.Println()
				fmt.Printf("Turns: %d\n", st.Turns)
				for _, m := range st.Matches {
					fmt.Printf("  [%s] %.2f  %s\n", m.Source, m.Similarity, m.Details.Title)
					if m.Details.Link != "" {
						fmt.Printf("        %s\n", m.Details.Link)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print matches and turn count")
	return cmd
}
