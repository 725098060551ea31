// Package preflight provides readiness checks for the binaries, model files
// and directories prama depends on.
//
// The server's /api/status endpoint and the "prama status" command both build
// a Report from these checks. Nothing here blocks a generation; a failing
// check only explains why a later model call is likely to fail.
package preflight
