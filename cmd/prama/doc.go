// Package main hosts the Prama CLI entrypoint and command graph.
//
// The Cobra command tree runs the web server, the Hindi to English
// translator, one-off talking-head and vodcast generations, and the job
// ledger and configuration utilities. Configuration and logger setup are
// resolved lazily in commandContext so subcommands only describe their flags
// and output.
//
// Generation logic lives in the internal packages; commands here build inputs
// from flags and render results.
package main
