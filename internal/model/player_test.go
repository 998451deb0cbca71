package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCapabilitySetMarshalsAsSortedArray(t *testing.T) {
	set := NewCapabilitySet(CapShuffle, CapPlay, CapPause)

	out, err := json.Marshal(set)
	require.NoError(t, err)
	require.JSONEq(t, `["pause","play","shuffle"]`, string(out))
}

func TestCapabilitySetRoundTrips(t *testing.T) {
	var set CapabilitySet
	require.NoError(t, json.Unmarshal([]byte(`["play","seek"]`), &set))
	require.True(t, set.Has(CapPlay))
	require.True(t, set.Has(CapSeek))
	require.False(t, set.Has(CapStop))
}

func TestPlayerSnapshotCapabilitiesSerializeAsArray(t *testing.T) {
	snap := PlayerSnapshot{ID: "p1", Capabilities: NewCapabilitySet(CapPlay)}

	out, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	caps, ok := decoded["capabilities"].([]any)
	require.True(t, ok, "capabilities must encode as a JSON array, got %#v", decoded["capabilities"])
	require.Equal(t, []any{"play"}, caps)
}
