package entities

// Manifest is the startup configuration listing the patch scripts to load.
type Manifest struct {
	Log     LogConfig      `json:"log,omitempty" yaml:"log,omitempty" toml:"log,omitempty"`
	ID      string         `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty" validate:"omitempty,max=128" jsonschema:"description=Interception instance id; generated when empty"`
	Scripts []ScriptConfig `json:"scripts" yaml:"scripts" toml:"scripts" validate:"required,min=1,dive" jsonschema:"minItems=1"`
}

// ScriptConfig points at one Starlark patch script.
type ScriptConfig struct {
	// Enabled is a pointer so an omitted key means enabled.
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Path    string `json:"path" yaml:"path" toml:"path" validate:"required,endswith=.star" jsonschema:"pattern=\\.star$"`
}

// IsEnabled reports whether the script should be loaded.
func (s ScriptConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// LogConfig configures the logger built from a manifest.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty" toml:"level,omitempty" validate:"omitempty,oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format string `json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty" validate:"omitempty,oneof=text json" jsonschema:"enum=text,enum=json"`
}
