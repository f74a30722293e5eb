// Package sanitizer normalizes customer input before validation and storage.
//
// All functions are idempotent. Invalid input is returned trimmed rather than
// dropped, so the validator can report it against the right field.
//
// Normalization includes:
//   - Phone numbers: E.164 (+[country][number]), parsed against a default region
//   - Emails: trimmed and lower-cased
//   - Names and free text: whitespace collapsed, trimmed
//   - Vehicle registrations: whitespace collapsed, upper-cased
package sanitizer
