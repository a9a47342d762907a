package cli

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/powerup-ledger/internal/services/token"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Token account commands",
	}

	cmd.AddCommand(newAccountOpenCmd())
	cmd.AddCommand(newAccountGetCmd())
	cmd.AddCommand(newAccountAirdropCmd())
	cmd.AddCommand(newAccountHistoryCmd())

	return cmd
}

func accountPath(id string, suffix string) string {
	return "/api/v1/accounts/" + url.PathEscape(id) + suffix
}

func newAccountOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Open a token account owned by the current signer",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Account

			if err := client.Post(cmd.Context(), "/api/v1/accounts", nil, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newAccountGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <account_id>",
		Short: "Show an account balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Account

			if err := client.Get(cmd.Context(), accountPath(args[0], ""), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newAccountAirdropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "airdrop <account_id> <amount>",
		Short: "Credit tokens to your own account from the faucet",
		Long: `Credit tokens to an account owned by the current signer. The amount is
in whole tokens and may have up to 6 decimals, e.g. 2.5.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := token.ParseUnits(args[1])
			if err != nil {
				return err
			}

			req := map[string]uint64{"amount": amount}
			var result Account

			if err := client.Post(cmd.Context(), accountPath(args[0], "/airdrop"), req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newAccountHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <account_id>",
		Short: "List the newest transfers touching an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := accountPath(args[0], "/transfers")
			if limit > 0 {
				path += "?limit=" + strconv.Itoa(limit)
			}
			var result TransferHistory

			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Number of transfers (default: server default)")

	return cmd
}
