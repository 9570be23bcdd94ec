package main

import (
	"context"
	"flag"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/rensa-labs/minerquery"
)

func main() {
	subcommands.Register(&cmdFee{}, "")
	subcommands.Register(&cmdBest{}, "")
	subcommands.Register(&cmdSubmit{}, "")
	subcommands.Register(&cmdStatus{}, "")
	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

// buildClient turns a comma-separated list of registry keys and/or URLs into
// a client. An empty list means every known miner.
func buildClient(miners string, timeout time.Duration) (*minerquery.Client, error) {
	reg := minerquery.DefaultRegistry()
	var keys []string
	if miners == "" {
		for k := range reg {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	} else {
		keys = strings.Split(miners, ",")
	}
	var toret []*minerquery.Miner
	for _, k := range keys {
		k = strings.TrimSpace(k)
		var m *minerquery.Miner
		var err error
		if _, known := reg[k]; known {
			m, err = minerquery.NewMinerFromKey(k, reg, nil)
		} else {
			m, err = minerquery.NewMiner(k, nil)
		}
		if err != nil {
			return nil, err
		}
		toret = append(toret, m)
	}
	clnt, err := minerquery.NewClient(toret...)
	if err != nil {
		return nil, err
	}
	clnt.SetTimeout(timeout)
	return clnt, nil
}
