package cli

import (
	"bytes"
	"encoding/json"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVersion(t *testing.T) {
	tt := map[string]struct {
		version string
		info    *debug.BuildInfo
		want    string
	}{
		"release build": {
			version: "v0.2.0",
			info:    &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}}},
			want:    "v0.2.0",
		},
		"no build info": {
			want: "development",
		},
		"clean checkout": {
			info: &debug.BuildInfo{Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef"},
				{Key: "vcs.modified", Value: "false"},
			}},
			want: "development@0123456",
		},
		"modified checkout": {
			info: &debug.BuildInfo{Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef"},
				{Key: "vcs.modified", Value: "true"},
			}},
			want: "development@0123456+dirty",
		},
		"short revision": {
			info: &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}}},
			want: "development@abc",
		},
	}

	for name, tc := range tt {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, resolveVersion(tc.version, tc.info))
		})
	}
}

func TestPrintVersion(t *testing.T) {
	info := versionInfo{
		Server:        "browser-mcp",
		Version:       "v0.2.0",
		SchemaVersion: "0.1.0",
		GoVersion:     "go1.24.7",
		Platform:      "linux/amd64",
	}

	var text bytes.Buffer
	require.NoError(t, printVersion(&text, info, false))
	assert.Equal(t, "browser-mcp v0.2.0 (config schema 0.1.0, go1.24.7 linux/amd64)\n", text.String())

	var out bytes.Buffer
	require.NoError(t, printVersion(&out, info, true))
	var decoded versionInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, info, decoded)
}
