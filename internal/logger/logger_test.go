package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "warn", Out: &buf})
	t.Cleanup(UseTestMode)

	Debug("hidden %d", 1)
	Info("hidden too")
	Warn("cache %s is stale", "details-US")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "cache details-US is stale")
	assert.True(t, Enabled("error"))
	assert.False(t, Enabled("debug"))
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "debug", JSON: true, Out: &buf})
	t.Cleanup(UseTestMode)

	Debug("refreshed %s", "details-DE")

	assert.Contains(t, buf.String(), `"msg":"refreshed details-DE"`)
	assert.Contains(t, buf.String(), `"level":"debug"`)
}

func TestSetLevelKeepsWriter(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "error", Out: &buf})
	t.Cleanup(UseTestMode)

	Info("before")
	SetLevel("info")
	Info("after")

	assert.NotContains(t, buf.String(), "before")
	assert.Contains(t, buf.String(), "after")
}
