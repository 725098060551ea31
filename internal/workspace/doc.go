// Package workspace assembles every filesystem path Prama writes to.
//
// Talking-head runs live in results/<tag> with their uploads under
// results/<tag>/input. Studio runs share the upload and generated directories
// and are namespaced by a timestamped run identifier. All constructors
// guarantee the returned paths stay lexically inside their root.
package workspace
