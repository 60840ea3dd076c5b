// Package sanitizer normalizes caller input before validation and storage.
//
// All functions are idempotent: applying them twice yields the same result.
// Invalid input is returned in a form the validators will reject rather than
// as an error.
//
// Normalization includes:
//   - Titles and names: trim, collapse inner whitespace
//   - Emails: trim, lowercase
//   - ISBNs: strip hyphens and spaces, uppercase the check character
//   - Id lists: drop duplicates, keep first-seen order
package sanitizer
