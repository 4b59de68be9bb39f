package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryStartIsExclusivePerName(t *testing.T) {
	r := NewRegistry()
	defer r.StopAll()

	started, err := r.Start("post-cycle", time.Minute, func() {})
	require.NoError(t, err)
	assert.True(t, started)

	started, err = r.Start("post-cycle", time.Minute, func() {})
	require.NoError(t, err)
	assert.False(t, started)

	started, err = r.Start("action-cycle", time.Minute, func() {})
	require.NoError(t, err)
	assert.True(t, started)

	assert.ElementsMatch(t, []string{"post-cycle", "action-cycle"}, r.Running())
}

func TestRegistryStopAllowsRestart(t *testing.T) {
	r := NewRegistry()
	defer r.StopAll()

	_, err := r.Start("post-cycle", time.Minute, func() {})
	require.NoError(t, err)

	assert.True(t, r.Stop("post-cycle"))
	assert.False(t, r.Stop("post-cycle"))

	started, err := r.Start("post-cycle", time.Minute, func() {})
	require.NoError(t, err)
	assert.True(t, started)
}

func TestRegistryStopAll(t *testing.T) {
	r := NewRegistry()
	_, err := r.Start("a", time.Minute, func() {})
	require.NoError(t, err)
	_, err = r.Start("b", time.Minute, func() {})
	require.NoError(t, err)

	r.StopAll()
	assert.Empty(t, r.Running())
}
