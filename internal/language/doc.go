// Package language provides language code normalization and display names.
//
// Translation warnings, the studio language selector and the voice-cloning
// bridge all pass codes through here so "Hindi", "hin" and "hi-IN" are
// treated alike. Unknown codes fall back to golang.org/x/text/language.
package language
