// Package errors provides the classified error primitives used across tidyarxiv.
//
// Every failure a run can end with maps onto one category:
//   - config: missing config file, missing target document, missing output directory,
//     invalid glob patterns or build command; detected before anything is staged
//   - staging: copy or sanitize failures while assembling the staging tree
//   - build: the external compiler exited non-zero (a normal, expected outcome)
//   - filesystem: artifact writes into the output directory
//
// The CLIErrorAdapter turns a category into a process exit code and a short
// human-readable message.
//
// Example usage:
//
//	err := errors.ConfigError("target document not found").
//		WithContext("path", "paper.tex").
//		Build()
package errors
