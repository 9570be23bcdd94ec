package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/rensa-labs/minerquery"
)

func main() {
	apiaddr := flag.String("apiaddr", "127.0.0.1:18332", "host and port to serve the mock miner API on")
	interval := flag.Int("interval", 10, "time in seconds between pretend blocks")
	latency := flag.Duration("latency", 0, "artificial response latency")
	flag.Parse()

	mm := minerquery.NewMockMiner(time.Second * time.Duration(*interval))
	defer mm.Stop()
	if *latency > 0 {
		mm.SetLatency(*latency)
	}
	hserv := &http.Server{
		Addr:           *apiaddr,
		Handler:        mm,
		MaxHeaderBytes: 1024 * 4,
		ReadTimeout:    time.Second * 2,
	}
	log.Println("MOCK MINER STARTED at", *apiaddr, "signing with", mm.PublicKeyHex())
	err := hserv.ListenAndServe()
	if err != nil {
		log.Fatalln("error starting API server:", err.Error())
	}
}
