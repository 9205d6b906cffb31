// Package publish writes the files that sit beside built packages: the
// version sidecar, the latest-changes note, and the two index pages that
// link the current package.
//
// The version sidecar is the only state carried between runs. When the addon
// is not installed on the packaging machine, the sidecar alone decides which
// package the index pages point at, and no check is made that the archive
// still exists.
package publish
