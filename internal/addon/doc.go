// Package addon finds installed Kodi addons and reads the version they declare.
//
// The version contract is strict: the manifest's first line must carry a
// version="<digits and dots>" attribute. Kodi writes addon.xml with the
// <addon> element on line 1, so a version found further down is treated as
// missing rather than guessed at.
package addon
