// Package workspace manages the ephemeral staging tree of a single run.
//
// A Manager creates a fresh, empty directory under the system temp dir (or a
// configured base) and removes it with all descendants on Cleanup. Callers
// pair Create with a deferred Cleanup so the tree is released on every exit
// path, including staging and build errors. Keep switches Cleanup to a no-op
// for debugging a broken build.
package workspace
