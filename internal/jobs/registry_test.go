package jobs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStartUpdateFinish(t *testing.T) {
	r := New(0)
	defer r.Close()

	id := r.Start("fetch-playlist")
	total, completed := 10, 3
	progress := "fetching"
	r.Update(id, &progress, &total, &completed)

	job, ok := r.Get(id)
	require.True(t, ok)
	require.Equal(t, "fetch-playlist", job.Name)
	require.Equal(t, "fetching", *job.Progress)
	pct := job.CompletionPercent()
	require.NotNil(t, pct)
	require.InDelta(t, 30.0, *pct, 0.001)

	r.Finish(id)
	job, ok = r.Get(id)
	require.True(t, ok)
	require.True(t, job.Finished)
}

func TestListReturnsAllJobs(t *testing.T) {
	r := New(0)
	defer r.Close()

	r.Start("a")
	r.Start("b")
	require.Len(t, r.List(), 2)
}

func TestGetUnknownID(t *testing.T) {
	r := New(0)
	defer r.Close()
	_, ok := r.Get("nope")
	require.False(t, ok)
}
