package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player record commands",
	}

	cmd.AddCommand(newPlayerInitCmd())
	cmd.AddCommand(newPlayerGetCmd())
	cmd.AddCommand(newPlayerScoreCmd())
	cmd.AddCommand(newPlayerBuyCmd())

	return cmd
}

func playerPath(id string, suffix string) string {
	return "/api/v1/players/" + url.PathEscape(id) + suffix
}

func newPlayerInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <player_id>",
		Short: "Create a fresh player record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"player_id": args[0]}
			var result Player

			if err := client.Post(cmd.Context(), "/api/v1/players", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newPlayerGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <player_id>",
		Short: "Show a player record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Player

			if err := client.Get(cmd.Context(), playerPath(args[0], ""), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newPlayerScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <player_id> <score>",
		Short: "Overwrite a player's score",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("score must be a non-negative integer: %w", err)
			}

			req := map[string]uint64{"score": score}
			var result Player

			if err := client.Put(cmd.Context(), playerPath(args[0], "/score"), req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newPlayerBuyCmd() *cobra.Command {
	var from, treasury string

	cmd := &cobra.Command{
		Use:   "buy <player_id> <power_up>",
		Short: "Buy a power-up for a player",
		Long: `Buy a power-up for a player, paying the catalog price from a token
account owned by the current signer. The power-up lasts 8 seconds.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" {
				return fmt.Errorf("--from is required")
			}

			req := map[string]string{
				"power_up":        args[1],
				"funding_account": from,
			}
			if treasury != "" {
				req["treasury_account"] = treasury
			}
			var result PurchaseResult

			if err := client.Post(cmd.Context(), playerPath(args[0], "/power-ups"), req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Funding token account (required)")
	cmd.Flags().StringVar(&treasury, "treasury", "", "Expected treasury account (optional)")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func newLeaderboardCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top players by score",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/leaderboard"
			if limit > 0 {
				path += "?limit=" + strconv.Itoa(limit)
			}
			var result Leaderboard

			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Number of players (default: server default)")

	return cmd
}
