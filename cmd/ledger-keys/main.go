package main

import (
	"flag"
	"os"

	"github.com/louisbranch/waybill/internal/platform/config"
	"github.com/louisbranch/waybill/internal/tools/ledgerkeys"
)

func main() {
	cfg, err := ledgerkeys.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := ledgerkeys.Run(cfg, os.Stdout, nil); err != nil {
		config.Exitf("ledger keys: %v", err)
	}
}
