// Package textutil reads the small UTF-8 text files addons ship: manifests and
// changelogs.
//
// Addon files are frequently saved by Windows editors, so readers decode
// through a BOM-aware UTF-8 transformer and split lines on both LF and CRLF.
// Invalid byte sequences are replaced rather than rejected; the pipeline only
// needs ASCII patterns from these files.
package textutil
