// Package git reports the revision of the project a build runs from.
//
// The revision is informational: it is written into build logs, the history
// database and published events. A project that is not a git repository
// simply has no revision.
package git
