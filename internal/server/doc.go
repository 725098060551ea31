// Package server exposes prama over HTTP.
//
// JSON endpoints live under /api and accept an optional bearer token. The
// browser UI is a pair of server-rendered pages (/ for talking heads, /studio
// for vodcasts) whose forms post to /ui/* and render the result in place.
// Generated media is served from /files/<root>/... for the results, uploads
// and generated directories only.
//
// Every request runs to completion synchronously; the inference lock inside
// the services serializes model work.
package server
