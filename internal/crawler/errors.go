package crawler

import "errors"

// ErrCredentialsExhausted is returned by Run when every credential is
// cooling down and the run is configured to stop rather than wait.
// The partial report is returned alongside it.
var ErrCredentialsExhausted = errors.New("all credentials are rate limited")
