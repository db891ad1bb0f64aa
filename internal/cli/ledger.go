package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var playerID int64

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show point history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/point-history"
			if playerID > 0 {
				path = fmt.Sprintf("%s?playerId=%d", path, playerID)
			}

			var entries []HistoryEntry
			if err := client.Get(cmd.Context(), path, &entries); err != nil {
				return err
			}

			output(cmd).Print(entries)
			return nil
		},
	}

	cmd.Flags().Int64Var(&playerID, "player", 0, "Only show this player's history")

	return cmd
}

func newRankingsCmd() *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:     "rankings",
		Aliases: []string{"leaderboard"},
		Short:   "Show the points ranking",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ranking Ranking
			if err := client.Get(cmd.Context(), fmt.Sprintf("/api/rankings?page=%d", page), &ranking); err != nil {
				return err
			}

			output(cmd).Print(ranking)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")

	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <player-id>",
		Short: "Show a player's rank and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var stats Stats
			if err := client.Get(cmd.Context(), fmt.Sprintf("/api/players/%d/stats", id), &stats); err != nil {
				return err
			}

			output(cmd).Print(stats)
			return nil
		},
	}
}
