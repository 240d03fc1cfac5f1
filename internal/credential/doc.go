// Package credential manages the GitHub tokens used by ghsubfinder.
//
// The Pool type rotates over tokens in round-robin order and withholds a
// token from rotation for a cooldown window after the remote API reports
// that the token hit its rate limit. All Pool methods are safe for
// concurrent use by fetch workers.
//
// The package also validates token shapes and resolves tokens from the
// sources the CLI accepts: an explicit comma-separated list, an environment
// variable, or a file with one token per line.
//
// # Usage
//
//	tokens, err := credential.Resolve(listFlag, os.Getenv("GITHUB_TOKEN"), ".tokens")
//	if err != nil {
//	    return err
//	}
//	pool := credential.NewPool(tokens)
//	cred, ok := pool.Acquire()
//	if !ok {
//	    // every token is cooling down
//	}
//	pool.Disable(cred.Token, 61*time.Second)
package credential
