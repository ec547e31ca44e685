// Command xmf ingests, stores, and queries a campus card's transaction
// history behind a terminal UI, a local web UI, and a batch export command.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/xmflabs/xmf/internal/domain"
	"github.com/xmflabs/xmf/internal/logging"
)

// globals are the flags shared by every run mode, matching the precedence
// rule in internal/config: explicit flag beats XMF_ACCOUNT/XMF_COOKIE
// beats the config file.
type globals struct {
	TickRate    float64 `default:"2" help:"Terminal UI tick rate in Hz."`
	FrameRate   float64 `default:"30" help:"Terminal UI render rate in Hz."`
	DataDir     string  `default:"." type:"path" help:"Directory holding the config file and database."`
	DBInMem     bool    `name:"db-in-mem" help:"Use an in-memory database instead of the on-disk file."`
	Account     string  `help:"Campus card account identifier."`
	Hallticket  string  `help:"Session cookie value (without the hallticket= prefix)."`
	UseMockData bool    `help:"Serve a deterministic synthetic transaction sequence instead of calling the remote."`
	RemoteBase  string  `hidden:"" default:"https://card.campus.edu/pay/transaction/list" help:"Card service transaction-list endpoint."`
}

type cli struct {
	Globals globals `embed:""`

	ClearDB   clearDBCmd   `cmd:"" name:"clear-db" help:"Truncate the local store."`
	Web       webCmd       `cmd:"" help:"Start the local HTTP server and web UI."`
	ExportCSV exportCSVCmd `cmd:"" name:"export-csv" help:"Export transactions to a CSV or JSON file."`
}

// known subcommand names, used to detect the no-subcommand default mode
// (the terminal UI) before handing parsing to kong, since kong's own
// subcommand dispatch has no "none selected" fallback of its own.
var knownCommands = map[string]bool{
	"clear-db":   true,
	"web":        true,
	"export-csv": true,
}

func main() {
	logging.Setup(logging.DefaultConfig())

	if !hasKnownSubcommand(os.Args[1:]) {
		runTUIStub()
		return
	}

	var root cli
	parser := kong.Must(&root,
		kong.Name("xmf"),
		kong.Description("Campus-card transaction ledger: ingest, store, and query your spending history."),
	)

	ctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := ctx.Run(&root.Globals); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

func hasKnownSubcommand(args []string) bool {
	for _, a := range args {
		if knownCommands[a] {
			return true
		}
	}
	return false
}

// runTUIStub stands in for the terminal UI's rendering and input loop,
// which is out of scope here: only its entry points into the core
// (the same ones the HTTP API uses) are specified.
func runTUIStub() {
	fmt.Println("xmf: the terminal UI is not built in this distribution; run `xmf web` or `xmf export-csv` instead.")
}

func exitCodeFor(err error) int {
	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		return 2
	}
	return 1
}
