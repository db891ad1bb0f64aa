package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type sampleAward struct {
	amount int
	reason string
}

type samplePlayer struct {
	discordID string
	username  string
	awards    []sampleAward
}

// samplePlayers is the demo campaign; each player's PL is the sum of its awards
var samplePlayers = []samplePlayer{
	{"123456789012345678", "Gandalf", []sampleAward{{5, "Solved the riddle"}, {10, "Defeated the Balrog"}, {10, "Creative spell usage"}}},
	{"223456789012345678", "Aragorn", []sampleAward{{5, "Leadership in battle"}, {10, "Roleplaying king's return"}, {5, "Tracking skills"}}},
	{"323456789012345678", "Legolas", []sampleAward{{8, "Accurate archery"}, {10, "Scouting enemy territory"}}},
	{"423456789012345678", "Gimli", []sampleAward{{6, "Dwarven resilience"}, {10, "Axe expertise"}}},
	{"523456789012345678", "Frodo", []sampleAward{{14, "Ring bearer's burden"}}},
	{"623456789012345678", "Samwise", []sampleAward{{12, "Unwavering loyalty"}}},
	{"723456789012345678", "Boromir", []sampleAward{{10, "Defending the hobbits"}}},
	{"823456789012345678", "Pippin", []sampleAward{{8, "Distracting the enemy"}}},
	{"923456789012345678", "Merry", []sampleAward{{7, "Rohan alliance"}}},
	{"023456789012345678", "Sauron", nil},
}

// SeedResult summarises a seed run
type SeedResult struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
	Awards  int      `json:"awards"`
}

func newSeedCmd() *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the sample campaign players and PL history",
		Long: `Create ten sample players and award their PL history through the API.

Players that already exist are skipped along with their awards, so seeding
twice does not double anyone's PL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := seed(cmd.Context(), client, by, progress(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			out := output(cmd)
			if cfg.Output == "json" {
				out.Print(result)
				return nil
			}
			out.PrintMessage(fmt.Sprintf("Seeded %d players (%d skipped, %d awards).",
				len(result.Created), len(result.Skipped), result.Awards))
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "DM", "Actor recorded in history")

	return cmd
}

func progress(w io.Writer) func(string) {
	return func(msg string) {
		if cfg.Verbose {
			fmt.Fprintln(w, msg)
		}
	}
}

func seed(ctx context.Context, c *Client, actor string, logf func(string)) (*SeedResult, error) {
	var existing []Player
	if err := c.Get(ctx, "/api/players", &existing); err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(existing))
	for _, p := range existing {
		known[p.DiscordID] = true
	}

	result := &SeedResult{Created: []string{}, Skipped: []string{}}
	for _, sp := range samplePlayers {
		if known[sp.discordID] {
			logf(fmt.Sprintf("Player %s already exists", sp.username))
			result.Skipped = append(result.Skipped, sp.username)
			continue
		}

		var player Player
		req := map[string]any{"discordId": sp.discordID, "username": sp.username, "points": 0}
		if err := c.Post(ctx, "/api/players", req, &player); err != nil {
			return result, fmt.Errorf("create %s: %w", sp.username, err)
		}
		logf("Created player: " + player.Username)
		result.Created = append(result.Created, player.Username)

		for _, a := range sp.awards {
			req := map[string]any{"playerId": player.ID, "amount": a.amount, "reason": a.reason, "addedBy": actor}
			if err := c.Post(ctx, "/api/points/add", req, nil); err != nil {
				return result, fmt.Errorf("award %s: %w", sp.username, err)
			}
			logf(fmt.Sprintf("Added %d PL to %s for %q", a.amount, sp.username, a.reason))
			result.Awards++
		}
	}
	return result, nil
}
