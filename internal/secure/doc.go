// Package secure keeps fetched documents out of ordinary heap memory.
//
// Document bytes returned by the 1Password CLI are sealed into a memguard
// enclave immediately after the fetch. The enclave is encrypted at rest
// (XSalsa20Poly1305), the plaintext source slice is wiped, and the plaintext
// is only unsealed into a locked, guard-paged buffer for the duration of the
// write to the destination file.
//
// If mlock is unavailable (Linux RLIMIT_MEMLOCK), memguard falls back to
// standard memory and the package keeps working.
//
// It does NOT protect against:
//
//   - Attackers with root access to the running process
//   - The plaintext destination file itself
package secure
