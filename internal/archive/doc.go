// Package archive builds the deflate-compressed zip that Kodi installs from.
//
// Every entry is rooted under a single folder named after the addon, whatever
// the source directory is called, because Kodi derives the install location
// from that folder. Excluded directories are pruned during the walk and never
// descended into; excluded file names are skipped wherever they appear.
package archive
