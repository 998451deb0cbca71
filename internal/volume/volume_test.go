package volume

import (
	"testing"

	"github.com/audiocontrol/acrd/internal/bus"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

func TestSetPercentageClampsSilently(t *testing.T) {
	c := New(bus.New(4), DefaultRange)
	state := c.Set(SetRequest{Percentage: f(150)})
	require.Equal(t, 100.0, state.Percentage)

	state = c.Set(SetRequest{Percentage: f(-10)})
	require.Equal(t, 0.0, state.Percentage)
}

func TestSetPrecedencePercentageThenDecibelsThenRaw(t *testing.T) {
	c := New(bus.New(4), DefaultRange)
	state := c.Set(SetRequest{Percentage: f(50), Decibels: f(-10), Raw: i(10)})
	require.Equal(t, 50.0, state.Percentage)
}

func TestIncreaseDecreaseMonotonic(t *testing.T) {
	c := New(bus.New(4), DefaultRange)
	c.Set(SetRequest{Percentage: f(50)})

	up := c.Increase(10)
	require.Equal(t, 60.0, up.Percentage)

	down := c.Decrease(25)
	require.Equal(t, 35.0, down.Percentage)
}

func TestMuteTogglesToLastNonZero(t *testing.T) {
	c := New(bus.New(4), DefaultRange)
	c.Set(SetRequest{Percentage: f(70)})

	muted := c.Mute()
	require.Equal(t, 0.0, muted.Percentage)
	require.True(t, muted.Muted)

	unmuted := c.Mute()
	require.Equal(t, 70.0, unmuted.Percentage)
	require.False(t, unmuted.Muted)
}

func TestDecibelAndRawConversionsAreMonotonic(t *testing.T) {
	c := New(bus.New(4), DefaultRange)

	low := c.Set(SetRequest{Percentage: f(10)})
	high := c.Set(SetRequest{Percentage: f(90)})

	require.Less(t, low.Decibels, high.Decibels)
	require.Less(t, low.Raw, high.Raw)
}

func TestVolumeChangedPublishedOnBus(t *testing.T) {
	b := bus.New(4)
	sub := b.Subscribe(bus.Filter{})
	defer sub.Close()

	c := New(b, DefaultRange)
	c.Set(SetRequest{Percentage: f(42)})

	v := <-sub.C()
	env, ok := v.(bus.Envelope)
	require.True(t, ok)
	require.NotNil(t, env.Event.VolumePercentage)
	require.InDelta(t, 42.0, *env.Event.VolumePercentage, 0.001)
}
