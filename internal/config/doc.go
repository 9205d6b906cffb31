// Package config loads, normalizes, and validates kodipack configuration data.
//
// It supplies repository defaults, resolves the platform Kodi addons root
// (honouring APPDATA the way Kodi on Windows does), expands user paths
// including tilde shortcuts, and reads TOML files. The Config type carries
// every input the packaging pipeline needs so no step relies on the process
// working directory.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
