package main

import (
	"github.com/btcsuite/btclog"

	pktlog "github.com/pkt-cash/pktsign/pktlog/log"
)

// Subsystem is the logging tag of this package.
const Subsystem = "CMD"

// log is a logger that is initialized with no output filters.  This
// means the package will not perform any logging by default until the caller
// requests it.
var log btclog.Logger

func init() {
	UseLogger(pktlog.NewSubLogger(Subsystem))
}

// DisableLog disables all library log output.  Logging output is disabled
// by default until UseLogger is called.
func DisableLog() {
	UseLogger(btclog.Disabled)
}

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}
