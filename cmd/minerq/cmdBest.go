package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"time"

	"github.com/google/subcommands"

	"github.com/rensa-labs/minerquery"
)

type cmdBest struct {
	argMiners  string
	argTimeout time.Duration
	argFeeType string
}

func (cmd *cmdBest) Name() string     { return "best" }
func (cmd *cmdBest) Synopsis() string { return "Find the cheapest quote among all miners" }
func (cmd *cmdBest) Usage() string    { return "" }

func (cmd *cmdBest) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.argMiners, "miners", "", "Comma-separated miner keys or URLs; empty means all known miners")
	f.DurationVar(&cmd.argTimeout, "timeout", time.Second*10, "Resolution deadline")
	f.StringVar(&cmd.argFeeType, "feetype", minerquery.FeeTypeStandard, "Fee class to compare on")
}

func (cmd *cmdBest) Execute(ctx context.Context,
	f *flag.FlagSet,
	args ...interface{}) subcommands.ExitStatus {
	clnt, err := buildClient(cmd.argMiners, cmd.argTimeout)
	if err != nil {
		log.Fatalln("could not build client:", err)
	}
	defer clnt.Close()
	best, err := clnt.BestQuote(ctx, cmd.argFeeType)
	if err != nil {
		log.Fatalln("could not fetch quotes:", err)
	}
	rate, _ := best.Payload.MiningRate(cmd.argFeeType)
	log.Printf("cheapest %v rate is %v sat / %v bytes from %v",
		cmd.argFeeType, rate.Satoshis, rate.Bytes, best.Miner)
	bts, _ := json.MarshalIndent(&best.Payload, "", "    ")
	log.Println(string(bts))
	return 0
}
