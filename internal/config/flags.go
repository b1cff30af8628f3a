package config

import "github.com/spf13/pflag"

// Flag names read by Load. Commands define the ones they support; Load
// applies only those the user actually set.
const (
	FlagConfig         = "config"
	FlagDebug          = "debug"
	FlagLogFile        = "log-file"
	FlagLegacyCharset  = "legacy-charset"
	FlagStrict         = "strict"
	FlagCompression    = "compression"
	FlagWideIndices    = "wide-indices"
	FlagNarrowMatrices = "narrow-matrices"
)

// BindGlobalFlags registers the flags shared by every command.
func BindGlobalFlags(fs *pflag.FlagSet) {
	fs.String(FlagConfig, "", "Path to config file")
	fs.Bool(FlagDebug, false, "Enable debug logging")
	fs.String(FlagLogFile, "", "Also write logs to this file")
	fs.String(FlagLegacyCharset, "", "Charset for names that are not valid UTF-8")
}

// BindEncodeFlags registers the flags that control encoding.
func BindEncodeFlags(fs *pflag.FlagSet) {
	fs.String(FlagCompression, "", "Payload compression: none, deflate or lzma")
	fs.Bool(FlagWideIndices, false, "Write 32-bit block references")
	fs.Bool(FlagNarrowMatrices, false, "Write transforms as float32")
}

// ConfigPath returns the explicit config path if provided via --config.
func ConfigPath(fs *pflag.FlagSet) string {
	if fs == nil {
		return ""
	}
	path, _ := fs.GetString(FlagConfig)
	return path
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, fs *pflag.FlagSet) {
	if fs == nil {
		return
	}
	if changed(fs, FlagDebug) {
		if debug, _ := fs.GetBool(FlagDebug); debug {
			cfg.Logging.Level = "debug"
		}
	}
	if changed(fs, FlagLogFile) {
		cfg.Logging.LogFile, _ = fs.GetString(FlagLogFile)
	}
	if changed(fs, FlagLegacyCharset) {
		cfg.Decode.LegacyCharset, _ = fs.GetString(FlagLegacyCharset)
	}
	if changed(fs, FlagStrict) {
		cfg.Decode.Strict, _ = fs.GetBool(FlagStrict)
	}
	if changed(fs, FlagCompression) {
		cfg.Encode.Compression, _ = fs.GetString(FlagCompression)
	}
	if changed(fs, FlagWideIndices) {
		cfg.Encode.WideIndices, _ = fs.GetBool(FlagWideIndices)
	}
	if changed(fs, FlagNarrowMatrices) {
		cfg.Encode.NarrowMatrices, _ = fs.GetBool(FlagNarrowMatrices)
	}
}

func changed(fs *pflag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	return f != nil && f.Changed
}
