package commands

import "github.com/btcsuite/btclog/v2"

// Subsystem defines the logging code for the command layer.
const Subsystem = "PGCM"

// log is a logger that is initialized with no output filters. This means the
// package will not perform any logging by default until the caller requests
// it.
var log = btclog.Disabled
