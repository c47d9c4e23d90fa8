// Package normx canonicalizes user-supplied identifiers and passwords
// before they reach the credential engine or the record store. Emails are
// full-case-folded and NFKC-normalized so "Alice@Example.COM" and
// "alice@example.com" address the same record; passwords are
// NFKC-normalized only, so visually identical inputs typed on different
// keyboards derive the same key.
package normx

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Email returns the canonical form of an email used as a lookup key:
// trimmed, full case-fold, then NFKC.
func Email(s string) string {
	return norm.NFKC.String(folder.String(strings.TrimSpace(s)))
}

// Password returns the canonical NFKC form of a password. Case is
// preserved.
func Password(s string) string {
	return norm.NFKC.String(s)
}
