package constants

const (
	Version        = `0.1.0`
	AppName        = `snyft`
	ConfigFile     = `cfg`
	ConfigFileType = `yaml`
	ConfigDir      = `.snyft`
	LogFile        = `snyft.log`
	EnvPrefix      = `SNYFT`

	// NewNoteTitleLayout names notes created without a title.
	NewNoteTitleLayout = `2006-01-02 15:04`
)
