// Package jobs keeps a SQLite history of every talking-head generation,
// text-to-speech request and studio run.
//
// The ledger is written as work happens and read by `prama jobs` and the
// /api/jobs endpoints. It is a record, not a queue: nothing is scheduled or
// retried from it, and rows are never pruned.
package jobs
