// Package textutil provides small string helpers shared across Prama:
// filename sanitization for uploads, token normalization for identifiers, and
// display truncation for tables and log lines.
package textutil
