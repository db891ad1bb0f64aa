package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

const defaultActor = "plctl"

func newPointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "points",
		Short: "Change a player's PL",
	}

	cmd.AddCommand(newPointsAddCmd())
	cmd.AddCommand(newPointsResetCmd())
	cmd.AddCommand(newPointsSetCmd())

	return cmd
}

func newPointsAddCmd() *cobra.Command {
	var reason, by string

	cmd := &cobra.Command{
		Use:   "add <player-id> <amount>",
		Short: "Award PL to a player",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			req := map[string]any{
				"playerId": id,
				"amount":   amount,
				"reason":   reason,
				"addedBy":  by,
			}
			var player Player
			if err := client.Post(cmd.Context(), "/api/points/add", req, &player); err != nil {
				return err
			}

			output(cmd).Print(player)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the PL was awarded")
	cmd.Flags().StringVar(&by, "by", defaultActor, "Actor recorded in history")

	return cmd
}

func newPointsResetCmd() *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "reset <player-id>",
		Short: "Reset a player's PL to zero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			req := map[string]any{"playerId": id, "addedBy": by}
			var player Player
			if err := client.Post(cmd.Context(), "/api/points/reset", req, &player); err != nil {
				return err
			}

			output(cmd).Print(player)
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", defaultActor, "Actor recorded in history")

	return cmd
}

func newPointsSetCmd() *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "set <player-id> <points>",
		Short: "Set a player's PL to an exact value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			points, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			req := map[string]any{"playerId": id, "points": points, "addedBy": by}
			var player Player
			if err := client.Post(cmd.Context(), "/api/points/set", req, &player); err != nil {
				return err
			}

			output(cmd).Print(player)
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", defaultActor, "Actor recorded in history")

	return cmd
}

func parseAmount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return n, nil
}
