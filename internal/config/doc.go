// Package config provides configuration structures and utilities for
// ghsubfinder. It defines the run options, their defaults and validation,
// the optional YAML configuration file, and the XDG directories used for
// the run history.
package config
