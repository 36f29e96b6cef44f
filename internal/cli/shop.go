package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/creditshop/internal/protocol"
)

// withSession logs in, runs fn and always closes the connection
func withSession(cmd *cobra.Command, fn func(login *protocol.Response, out *Output) error) error {
	defer func() {
		if client != nil {
			_ = client.Close()
			client = nil
		}
	}()

	login, err := client.Login(cfg.Nickname)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		cmd.PrintErrf("logged in as %s (+%d credits)\n", login.Nickname, login.GrantedBonus())
	}
	return fn(login, newOutput(cmd))
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in, creating the account on first use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(login *protocol.Response, out *Output) error {
				out.Print(LoginResult{
					Account: *login.AccountView,
					Bonus:   login.GrantedBonus(),
					Created: login.Created,
				})
				return nil
			})
		},
	}
}

func newBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show credits and owned items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(_ *protocol.Response, out *Output) error {
				return doAccount(protocol.Request{Action: protocol.ActionBalance}, out)
			})
		},
	}
}

func newItemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "items",
		Short: "List the items for sale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(_ *protocol.Response, out *Output) error {
				resp, err := client.Do(protocol.Request{Action: protocol.ActionListItems})
				if err != nil {
					return err
				}
				out.Print(Catalog{Items: resp.Catalog})
				return nil
			})
		},
	}
}

func newBuyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buy <item>",
		Short: "Buy an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(_ *protocol.Response, out *Output) error {
				return doAccount(protocol.Request{Action: protocol.ActionBuy, ItemKey: args[0]}, out)
			})
		},
	}
}

func newSellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sell <item>",
		Short: "Sell an owned item for half its price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(_ *protocol.Response, out *Output) error {
				return doAccount(protocol.Request{Action: protocol.ActionSell, ItemKey: args[0]}, out)
			})
		},
	}
}
