package config

const (
	defaultRomDir             = "~/arcade/roms"
	defaultStagingDir         = "~/.local/share/romset/staging"
	defaultLogDir             = "~/.local/share/romset/logs"
	defaultReviewDir          = "~/.local/share/romset/review"
	defaultSystemsDir         = "~/.config/romset/systems"
	defaultManifestDir        = "~/arcade/databases"
	defaultSevenZip           = "7z"
	defaultUnrar              = "unrar"
	defaultArchiveFormat      = "zip"
	defaultFuzzyThreshold     = 0.75
	defaultStagingMaxAgeHours = 24
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

var defaultMediaExtensions = []string{"png", "jpg", "mp4", "flv"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RomDir:      defaultRomDir,
			StagingDir:  defaultStagingDir,
			LogDir:      defaultLogDir,
			ReviewDir:   defaultReviewDir,
			SystemsDir:  defaultSystemsDir,
			ManifestDir: defaultManifestDir,
		},
		Tools: Tools{
			SevenZip: defaultSevenZip,
			Unrar:    defaultUnrar,
		},
		Archive: Archive{
			Format:   defaultArchiveFormat,
			Compress: true,
		},
		Reconcile: Reconcile{
			FuzzyEnabled:       true,
			FuzzyThreshold:     defaultFuzzyThreshold,
			BackupOnOverwrite:  true,
			StagingMaxAgeHours: defaultStagingMaxAgeHours,
		},
		Media: Media{
			Extensions: append([]string(nil), defaultMediaExtensions...),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
