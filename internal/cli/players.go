package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPlayersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "players",
		Aliases: []string{"player"},
		Short:   "Player management commands",
	}

	cmd.AddCommand(newPlayersListCmd())
	cmd.AddCommand(newPlayersGetCmd())
	cmd.AddCommand(newPlayersCreateCmd())

	return cmd
}

func newPlayersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var players []Player
			if err := client.Get(cmd.Context(), "/api/players", &players); err != nil {
				return err
			}

			output(cmd).Print(players)
			return nil
		},
	}
}

func newPlayersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var player Player
			if err := client.Get(cmd.Context(), fmt.Sprintf("/api/players/%d", id), &player); err != nil {
				return err
			}

			output(cmd).Print(player)
			return nil
		},
	}
}

func newPlayersCreateCmd() *cobra.Command {
	var discordID, username string
	var points int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"discordId": discordID,
				"username":  username,
				"points":    points,
			}
			var player Player
			if err := client.Post(cmd.Context(), "/api/players", req, &player); err != nil {
				return err
			}

			output(cmd).Print(player)
			return nil
		},
	}

	cmd.Flags().StringVar(&discordID, "discord-id", "", "Discord user id (required)")
	cmd.Flags().StringVar(&username, "username", "", "Display name (required)")
	cmd.Flags().IntVar(&points, "points", 0, "Initial PL")
	_ = cmd.MarkFlagRequired("discord-id")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid player id %q", s)
	}
	return id, nil
}
