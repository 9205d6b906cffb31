// Package packager runs one packaging pass for a configured addon.
//
// When the addon is installed, Run reads its version, zips the install
// directory into the output directory, records the version in the sidecar,
// copies the newest changelog paragraph, and points both index pages at the
// new archive. When it is not installed, Run skips straight to the index pages
// and links whatever package the sidecar names. Every run holds an exclusive
// lock on the output directory and, when enabled, appends a row to the build
// history.
package packager
