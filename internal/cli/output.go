package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mcoot/creditshop/internal/model"
	"github.com/mcoot/creditshop/internal/protocol"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	out    io.Writer
	errOut io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, out, errOut io.Writer) *Output {
	return &Output{format: format, out: out, errOut: errOut}
}

// LoginResult is what the login command reports
type LoginResult struct {
	Account protocol.AccountView `json:"account"`
	Bonus   int                  `json:"bonus"`
	Created bool                 `json:"created"`
}

// Catalog is the list_items result
type Catalog struct {
	Items []model.Item `json:"items"`
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(o.errOut, string(data))
	} else {
		fmt.Fprintf(o.errOut, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.out, string(data))
	} else {
		fmt.Fprintln(o.out, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case LoginResult:
		o.printLogin(v)
	case protocol.AccountView:
		o.printAccount(v)
	case Catalog:
		o.printCatalog(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printLogin(r LoginResult) {
	if r.Created {
		fmt.Fprintf(o.out, "Welcome, %s! New account opened with %d credits.\n", r.Account.Nickname, r.Bonus)
	} else {
		fmt.Fprintf(o.out, "Welcome back, %s! Login bonus: %d credits.\n", r.Account.Nickname, r.Bonus)
	}
	o.printAccount(r.Account)
}

func (o *Output) printAccount(a protocol.AccountView) {
	fmt.Fprintf(o.out, "Credits: %d\n", a.Credits)
	if len(a.OwnedItems) == 0 {
		fmt.Fprintln(o.out, "Items: (none)")
		return
	}
	fmt.Fprintf(o.out, "Items: %s\n", strings.Join(a.OwnedItems, ", "))
}

func (o *Output) printCatalog(c Catalog) {
	fmt.Fprintln(o.out, "Items for sale:")
	for _, item := range c.Items {
		fmt.Fprintf(o.out, "  %-14s %-20s %5d credits (sells for %d)\n",
			item.Key, item.Name, item.Price, item.SellPrice())
	}
}
