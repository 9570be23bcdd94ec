package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"time"

	"github.com/google/subcommands"
)

type cmdFee struct {
	argMiners  string
	argTimeout time.Duration
	argCacheDb string
}

func (cmd *cmdFee) Name() string     { return "fee" }
func (cmd *cmdFee) Synopsis() string { return "Fetch the fastest miner's fee quote" }
func (cmd *cmdFee) Usage() string    { return "" }

func (cmd *cmdFee) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.argMiners, "miners", "", "Comma-separated miner keys or URLs; empty means all known miners")
	f.DurationVar(&cmd.argTimeout, "timeout", time.Second*10, "Resolution deadline")
	f.StringVar(&cmd.argCacheDb, "cachedb", "", "Location of quote cache database; omit to skip caching")
}

func (cmd *cmdFee) Execute(ctx context.Context,
	f *flag.FlagSet,
	args ...interface{}) subcommands.ExitStatus {
	clnt, err := buildClient(cmd.argMiners, cmd.argTimeout)
	if err != nil {
		log.Fatalln("could not build client:", err)
	}
	defer clnt.Close()
	if cmd.argCacheDb != "" {
		if err := clnt.AttachCache(cmd.argCacheDb); err != nil {
			log.Fatalln("could not open quote cache:", err)
		}
	}
	quote, err := clnt.FeeQuote(ctx)
	if err != nil {
		log.Fatalln("could not fetch quote:", err)
	}
	log.Println("quote from", quote.Miner, "verified", quote.Envelope.Verified,
		"key", quote.Envelope.KeyFingerprint())
	bts, _ := json.MarshalIndent(&quote.Payload, "", "    ")
	log.Println(string(bts))
	return 0
}
