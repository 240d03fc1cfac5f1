package credential

import "errors"

// ErrNoCredentials is returned by Resolve when none of the configured
// sources yields a token of a valid shape.
var ErrNoCredentials = errors.New("no valid GitHub token found (use --tokens, GITHUB_TOKEN, or a .tokens file)")
