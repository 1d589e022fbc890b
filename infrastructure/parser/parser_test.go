package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
)

const yamlManifest = `
id: com.example.mod
log:
  level: debug
  format: json
scripts:
  - path: patches/foo.star
  - path: patches/off.star
    enabled: false
`

const tomlManifest = `
id = "com.example.mod"

[log]
level = "debug"
format = "json"

[[scripts]]
path = "patches/foo.star"

[[scripts]]
path = "patches/off.star"
enabled = false
`

const jsonManifest = `{
  "id": "com.example.mod",
  "log": {"level": "debug", "format": "json"},
  "scripts": [
    {"path": "patches/foo.star"},
    {"path": "patches/off.star", "enabled": false}
  ]
}`

func TestParsers(t *testing.T) {
	tests := []struct {
		file string
		data string
	}{
		{"manifest.yaml", yamlManifest},
		{"manifest.YML", yamlManifest},
		{"manifest.toml", tomlManifest},
		{"manifest.json", jsonManifest},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			p, err := ForPath(tt.file)
			require.NoError(t, err)

			m, err := p.Parse([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, "com.example.mod", m.ID)
			assert.Equal(t, entities.LogConfig{Level: "debug", Format: "json"}, m.Log)
			require.Len(t, m.Scripts, 2)
			assert.Equal(t, "patches/foo.star", m.Scripts[0].Path)
			assert.True(t, m.Scripts[0].IsEnabled())
			assert.Nil(t, m.Scripts[0].Enabled)
			assert.Equal(t, "patches/off.star", m.Scripts[1].Path)
			assert.False(t, m.Scripts[1].IsEnabled())

			doc, err := p.Decode([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, "com.example.mod", doc["id"])
			assert.Contains(t, doc, "scripts")
			assert.Contains(t, doc, "log")
		})
	}
}

func TestForPath_Unsupported(t *testing.T) {
	_, err := ForPath("manifest.ini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `".ini"`)

	_, err = ForPath("manifest")
	assert.Error(t, err)
}

func TestParse_Malformed(t *testing.T) {
	_, err := NewYamlManifestParser().Parse([]byte("scripts: [unclosed"))
	assert.ErrorContains(t, err, "parse yaml manifest")

	_, err = NewTomlManifestParser().Parse([]byte("scripts = [unclosed"))
	assert.ErrorContains(t, err, "parse toml manifest")

	_, err = NewTomlManifestParser().Decode([]byte("= nope"))
	assert.ErrorContains(t, err, "decode toml manifest")
}
