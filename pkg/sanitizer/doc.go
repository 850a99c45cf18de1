// Package sanitizer normalizes venue and booking input before validation and
// storage.
//
// Every function is idempotent. Unparsable phone numbers are returned trimmed
// but otherwise untouched so the validator can reject them.
//
// Normalization includes:
//   - Phone numbers: E.164, trying Argentina then the US as the default region
//   - URLs: https scheme, lowercase host, no trailing slash
//   - Strings: whitespace collapsed and trimmed
//   - Instagram handles: leading @ and profile URL prefix removed
//   - Slices: duplicates and empty values dropped after normalization
package sanitizer
