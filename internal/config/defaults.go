package config

const (
	defaultAddonName      = "plugin.video.fenlight"
	defaultManifestPath   = "addon.xml"
	defaultChangelogPath  = "resources/text/changelog.txt"
	defaultProjectDir     = "."
	defaultOutputDir      = "packages"
	defaultStateDir       = "~/.local/share/kodipack"
	defaultVersionFile    = "fenlight_version"
	defaultChangesFile    = "fenlight_changes"
	defaultIndexFile      = "index.html"
	defaultHistoryFile    = "history.db"
	defaultHistoryEnabled = true
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

func defaultExcludeDirs() []string {
	return []string{".git", "__pycache__"}
}

func defaultExcludeFiles() []string {
	return []string{".gitignore"}
}

// Default returns a Config populated with repository defaults. The addon name
// and addons directory are left empty and resolved during normalization so
// KODIPACK_ADDON and APPDATA can fill them.
func Default() Config {
	return Config{
		Addon: Addon{
			ManifestPath:  defaultManifestPath,
			ChangelogPath: defaultChangelogPath,
			ExcludeDirs:   defaultExcludeDirs(),
			ExcludeFiles:  defaultExcludeFiles(),
		},
		Paths: Paths{
			ProjectDir: defaultProjectDir,
			OutputDir:  defaultOutputDir,
			StateDir:   defaultStateDir,
		},
		Publish: Publish{
			VersionFile: defaultVersionFile,
			ChangesFile: defaultChangesFile,
			IndexFile:   defaultIndexFile,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
