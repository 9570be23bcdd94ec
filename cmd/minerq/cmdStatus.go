package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"time"

	"github.com/google/subcommands"
)

type cmdStatus struct {
	argMiners  string
	argTimeout time.Duration
	argTxID    string
}

func (cmd *cmdStatus) Name() string     { return "status" }
func (cmd *cmdStatus) Synopsis() string { return "Query the status of a transaction" }
func (cmd *cmdStatus) Usage() string    { return "" }

func (cmd *cmdStatus) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.argMiners, "miners", "", "Comma-separated miner keys or URLs; empty means all known miners")
	f.DurationVar(&cmd.argTimeout, "timeout", time.Second*10, "Resolution deadline")
	f.StringVar(&cmd.argTxID, "txid", "", "Transaction ID to query")
}

func (cmd *cmdStatus) Execute(ctx context.Context,
	f *flag.FlagSet,
	args ...interface{}) subcommands.ExitStatus {
	if cmd.argTxID == "" {
		log.Fatalln("-txid is a mandatory argument")
	}
	clnt, err := buildClient(cmd.argMiners, cmd.argTimeout)
	if err != nil {
		log.Fatalln("could not build client:", err)
	}
	defer clnt.Close()
	status, err := clnt.QueryTransaction(ctx, cmd.argTxID)
	if err != nil {
		log.Fatalln("could not query:", err)
	}
	log.Println("status from", status.Miner, "mined", status.Mined())
	bts, _ := json.MarshalIndent(&status.Payload, "", "    ")
	log.Println(string(bts))
	return 0
}
