package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/creditshop/internal/protocol"
)

const shellHelp = `Commands:
  buy <item>     buy an item
  sell <item>    sell an owned item
  balance        show credits and items
  items          list items for sale
  logout         end the session but stay connected
  login <name>   log in as another nickname
  quit           disconnect`

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(login *protocol.Response, out *Output) error {
				out.Print(LoginResult{Account: *login.AccountView, Bonus: login.GrantedBonus(), Created: login.Created})
				return runShell(cmd, out)
			})
		},
	}
}

func runShell(cmd *cobra.Command, out *Output) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	interactive := cfg.Output != "json"

	for {
		if interactive {
			fmt.Fprint(cmd.OutOrStdout(), "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		done, err := shellCommand(fields, out)
		if err != nil {
			// Server-side rejections keep the shell running
			var serverErr *ServerError
			if !errors.As(err, &serverErr) && !errors.Is(err, errUsage) {
				return err
			}
			out.PrintError(err)
		}
		if done {
			return nil
		}
	}
}

var errUsage = errors.New("unknown command, type 'help'")

func shellCommand(fields []string, out *Output) (done bool, err error) {
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch {
	case name == "quit" || name == "exit":
		return true, nil
	case name == "help":
		out.PrintMessage(shellHelp)
		return false, nil
	case name == "balance" && len(args) == 0:
		return false, doAccount(protocol.Request{Action: protocol.ActionBalance}, out)
	case name == "buy" && len(args) == 1:
		return false, doAccount(protocol.Request{Action: protocol.ActionBuy, ItemKey: args[0]}, out)
	case name == "sell" && len(args) == 1:
		return false, doAccount(protocol.Request{Action: protocol.ActionSell, ItemKey: args[0]}, out)
	case name == "items" && len(args) == 0:
		resp, err := client.Do(protocol.Request{Action: protocol.ActionListItems})
		if err != nil {
			return false, err
		}
		out.Print(Catalog{Items: resp.Catalog})
		return false, nil
	case name == "logout" && len(args) == 0:
		resp, err := client.Do(protocol.Request{Action: protocol.ActionLogout})
		if err != nil {
			return false, err
		}
		out.PrintMessage(resp.Message)
		return false, nil
	case name == "login" && len(args) == 1:
		resp, err := client.Login(args[0])
		if err != nil {
			return false, err
		}
		out.Print(LoginResult{Account: *resp.AccountView, Bonus: resp.GrantedBonus(), Created: resp.Created})
		return false, nil
	default:
		return false, errUsage
	}
}

func doAccount(req protocol.Request, out *Output) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	out.Print(*resp.AccountView)
	return nil
}
