// Package main provides the entry point for the ghsubfinder CLI.
//
// ghsubfinder discovers subdomains of a target domain by searching GitHub
// code for mentions of it and scanning the matching files.
//
// Usage:
//
//	ghsubfinder scan -d example.com
//	ghsubfinder history example.com --diff
//
// See --help for all available options.
package main

// main is the entry point for ghsubfinder.
func main() {
	Execute()
}
