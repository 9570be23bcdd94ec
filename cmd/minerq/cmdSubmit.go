package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log"
	"time"

	"github.com/google/subcommands"
)

type cmdSubmit struct {
	argMiners  string
	argTimeout time.Duration
	argTx      string
	argAll     bool
}

func (cmd *cmdSubmit) Name() string     { return "submit" }
func (cmd *cmdSubmit) Synopsis() string { return "Broadcast a raw transaction" }
func (cmd *cmdSubmit) Usage() string    { return "" }

func (cmd *cmdSubmit) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.argMiners, "miners", "", "Comma-separated miner keys or URLs; empty means all known miners")
	f.DurationVar(&cmd.argTimeout, "timeout", time.Second*30, "Resolution deadline")
	f.StringVar(&cmd.argTx, "tx", "", "Raw transaction as a hexcode")
	f.BoolVar(&cmd.argAll, "all", false, "Submit to every miner instead of resolving on the first acceptance")
}

func (cmd *cmdSubmit) Execute(ctx context.Context,
	f *flag.FlagSet,
	args ...interface{}) subcommands.ExitStatus {
	if cmd.argTx == "" {
		log.Fatalln("-tx is a mandatory argument")
	}
	rawTx, err := hex.DecodeString(cmd.argTx)
	if err != nil {
		log.Fatalln("could not decode transaction hexcode:", err)
	}
	clnt, err := buildClient(cmd.argMiners, cmd.argTimeout)
	if err != nil {
		log.Fatalln("could not build client:", err)
	}
	defer clnt.Close()
	if cmd.argAll {
		results, err := clnt.SubmitTransactionToAll(ctx, rawTx)
		if err != nil {
			log.Fatalln("could not submit:", err)
		}
		for _, res := range results {
			log.Println("miner", res.Miner, "accepted", res.Accepted(),
				"txid", res.Payload.TxID, res.Payload.ResultDescription)
		}
		return 0
	}
	res, err := clnt.SubmitTransaction(ctx, rawTx)
	if err != nil {
		log.Fatalln("could not submit:", err)
	}
	log.Println("accepted by", res.Miner)
	bts, _ := json.MarshalIndent(&res.Payload, "", "    ")
	log.Println(string(bts))
	return 0
}
