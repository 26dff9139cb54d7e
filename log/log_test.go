package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, lvl)

	lvl, err = ParseLevel("TRACE")
	require.NoError(t, err)
	assert.Equal(t, LevelTrace, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestModuleGating(t *testing.T) {
	prev := Root()
	defer SetDefault(prev)

	var buf bytes.Buffer
	SetDefault(NewLogger(NewTerminalHandlerWithLevel(&buf, LevelTrace)))

	Debug(NetworkMonitoring, "dropped while disabled")
	assert.Empty(t, buf.String())

	EnableModules("net_mod, amp_mod")
	defer DisableModule(NetworkMonitoring)
	defer DisableModule(PipelineMonitoring)

	Debug(NetworkMonitoring, "nat resend", "y", 42)
	out := buf.String()
	assert.True(t, strings.Contains(out, "nat resend"))
	assert.True(t, strings.Contains(out, "module=net_mod"))
	assert.True(t, strings.Contains(out, "DEBUG"))

	// Info is never module gated.
	Info(VMMonitoring, "halted")
	assert.True(t, strings.Contains(buf.String(), "halted"))
}

func TestDisableModuleEntry(t *testing.T) {
	prev := Root()
	defer SetDefault(prev)

	var buf bytes.Buffer
	SetDefault(NewLogger(NewTerminalHandlerWithLevel(&buf, LevelTrace)))

	EnableModules("all,-vm_mod")
	defer func() {
		for _, m := range knownModules {
			DisableModule(m)
		}
	}()

	Trace(VMMonitoring, "exec")
	assert.Empty(t, buf.String())

	Debug(NetworkMonitoring, "idle")
	assert.True(t, strings.Contains(buf.String(), "module=net_mod"))
}

func TestLevelStrings(t *testing.T) {
	assert.Equal(t, "CRIT ", LevelAlignedString(LevelCrit))
	assert.Equal(t, "TRACE", LevelAlignedString(LevelTrace))
	assert.Equal(t, "unknown level", LevelAlignedString(42))
}
