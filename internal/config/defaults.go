package config

const (
	defaultConfigPath    = "/etc/cups/cups-pdf.toml"
	defaultOutputSubdir  = "Documents"
	defaultExtension     = ".pdf"
	defaultFileMode      = "0644"
	defaultDirMode       = "0755"
	defaultTitlePolicy   = TitlePolicySanitize
	defaultFallbackTitle = "untitled"
	defaultDeviceScheme  = "file"
	defaultDeviceURI     = "cups-pdf:/"
	defaultDeviceName    = "Otto's Print to PDF"
	defaultMakeModel     = "MFG:Otto;CMD:PDF;"
	defaultLogFormat     = "auto"
	defaultLogLevel      = "info"
	defaultInspectMode   = InspectWarn
	defaultLockDir       = "/var/spool/cups-pdf/locks"
	defaultJournalPath   = "/var/spool/cups-pdf/journal.db"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Output: Output{
			Subdir:        defaultOutputSubdir,
			Extension:     defaultExtension,
			FileMode:      defaultFileMode,
			DirMode:       defaultDirMode,
			TitlePolicy:   defaultTitlePolicy,
			FallbackTitle: defaultFallbackTitle,
			Atomic:        true,
		},
		Device: Device{
			Scheme:      defaultDeviceScheme,
			URI:         defaultDeviceURI,
			Name:        defaultDeviceName,
			Description: defaultDeviceName,
			MakeModel:   defaultMakeModel,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Inspect: Inspect{
			Mode: defaultInspectMode,
		},
		Lock: Lock{
			Dir: defaultLockDir,
		},
		Journal: Journal{
			Path: defaultJournalPath,
		},
	}
}
