package credential

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// DefaultEnvVar is the environment variable consulted for a token.
const DefaultEnvVar = "GITHUB_TOKEN"

// DefaultTokenFile is the token file looked up in the working directory.
const DefaultTokenFile = ".tokens"

// tokenPattern matches the accepted GitHub token shapes: a classic 40-char
// hex token, a "ghp_" personal token, or a fine-grained "github_pat_" token.
var tokenPattern = regexp.MustCompile(`(?:[0-9a-f]{40}|ghp_[A-Za-z0-9]{36}|github_pat_[_A-Za-z0-9]{82})`)

// Valid reports whether s contains a token of an accepted shape.
func Valid(s string) bool {
	return tokenPattern.MatchString(s)
}

// Dedupe returns tokens with surrounding whitespace trimmed, empty entries
// removed, and duplicates dropped. The first occurrence wins.
func Dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// FromList parses a comma-separated token list and keeps the valid ones.
func FromList(list string) []string {
	var tokens []string
	for _, t := range strings.Split(list, ",") {
		t = strings.TrimSpace(t)
		if t != "" && Valid(t) {
			tokens = append(tokens, t)
		}
	}
	return Dedupe(tokens)
}

// FromEnv returns the token stored in the named environment variable, if it
// is set and valid.
func FromEnv(name string) []string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" || !Valid(v) {
		return nil
	}
	return []string{v}
}

// FromFile reads one token per line from path. A missing file yields no
// tokens and no error, because the file is only a fallback source.
func FromFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided token path is intentional
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && Valid(line) {
			tokens = append(tokens, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	return Dedupe(tokens), nil
}

// Sources describes where Resolve looks for tokens.
type Sources struct {
	// List is a comma-separated list given on the command line.
	List string

	// EnvVar names the environment variable holding a single token.
	EnvVar string

	// File is a path to a file with one token per line.
	File string

	// Extra holds tokens from the configuration file. They are used only
	// when every other source is empty.
	Extra []string
}

// Resolve returns the tokens from the first non-empty source in the order
// list, environment, file, config. It returns ErrNoCredentials when no
// source yields a valid token.
func Resolve(src Sources) ([]string, error) {
	if tokens := FromList(src.List); len(tokens) > 0 {
		return tokens, nil
	}

	if src.EnvVar != "" {
		if tokens := FromEnv(src.EnvVar); len(tokens) > 0 {
			return tokens, nil
		}
	}

	if src.File != "" {
		tokens, err := FromFile(src.File)
		if err != nil {
			return nil, err
		}
		if len(tokens) > 0 {
			return tokens, nil
		}
	}

	var extra []string
	for _, t := range src.Extra {
		if Valid(t) {
			extra = append(extra, t)
		}
	}
	if extra = Dedupe(extra); len(extra) > 0 {
		return extra, nil
	}

	return nil, ErrNoCredentials
}

// Fingerprint returns a short, stable identifier for token that is safe to
// log or store. It is the first 8 bytes of the SHA3-256 digest, hex encoded.
func Fingerprint(token string) string {
	sum := sha3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
