// Package studio runs the vodcast pipeline: a face video and a written
// script go in, a lip-synced video speaking the script in the presenter's
// cloned voice comes out.
//
// Stages run in order and the first failure ends the run. Each stage is an
// interface so callers can substitute fakes.
package studio
