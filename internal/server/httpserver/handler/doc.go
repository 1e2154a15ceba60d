// Package handler provides HTTP request handlers for TokVault.
//
//   - vault.go: POST /tokenize and POST /detokenize
//   - admin.go: Status and backup
//   - health.go: Health and readiness checks
//
// Vault routes answer with bare JSON bodies. Health and admin routes use
// the Response envelope. A failed vault operation is reported as a 500
// with an empty body; the cause goes to the server log only.
package handler
