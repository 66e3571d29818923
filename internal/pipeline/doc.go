// Package pipeline runs one tidyarxiv build: validate the configuration,
// stage and sanitize the sources into a private temporary tree, invoke the
// compiler there and package the artifacts into the output directory.
//
// Steps run strictly in sequence. The staging tree is removed on every exit
// path. A compiler failure is an expected outcome: Run writes the fixed-name
// failure log and reports it through Result and a build-category error.
package pipeline
