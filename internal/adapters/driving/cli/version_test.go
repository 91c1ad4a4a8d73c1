package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
}

func TestVersionCmd_PrintsVersion(t *testing.T) {
	out, err := execute("version")
	require.NoError(t, err)
	assert.Contains(t, out, "datatalk version")
}

func TestSetVersion(t *testing.T) {
	prev := version
	defer func() { version = prev }()

	SetVersion("1.2.3")
	out, err := execute("version")
	require.NoError(t, err)
	assert.Contains(t, out, "datatalk version 1.2.3")
}
