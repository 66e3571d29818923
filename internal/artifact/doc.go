// Package artifact writes the outputs of a run into the output directory.
//
// A successful run produces three files sharing one "{target}_{timestamp}"
// prefix: the publish archive (.tar.gz), the compiled document (.pdf) and the
// build log (.log), plus an optional metadata copy (.txt). A failed run writes
// only the build log, under the fixed name build.log.
package artifact
