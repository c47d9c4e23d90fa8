package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigAccessTTL(t *testing.T) {
	t.Setenv("CRESTFALL_ACCESS_TTL", "30m")
	require.Equal(t, 30*time.Minute, LoadConfig().TokenTTL)

	// Bare integers are read as minutes.
	t.Setenv("CRESTFALL_ACCESS_TTL", "45")
	require.Equal(t, 45*time.Minute, LoadConfig().TokenTTL)

	t.Setenv("CRESTFALL_ACCESS_TTL", "")
	require.Equal(t, 15*time.Minute, LoadConfig().TokenTTL)
}
