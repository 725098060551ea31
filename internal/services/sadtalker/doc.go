// Package sadtalker drives SadTalker's inference.py to animate a still
// portrait from a driving audio clip.
//
// The model runs as a Python subprocess inside the SadTalker checkout; this
// package validates options, builds the command line, and locates the video
// the script wrote.
package sadtalker
