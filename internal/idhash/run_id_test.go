package idhash

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunID_Sortable(t *testing.T) {
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = NewRunID(now)
	}
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i], "ids from the same millisecond must increase")
	}

	later := NewRunID(now.Add(time.Second))
	assert.Less(t, ids[len(ids)-1], later)
	assert.Len(t, later, 26)
}

func TestRunTime(t *testing.T) {
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

	got, err := RunTime(NewRunID(now))
	require.NoError(t, err)
	assert.True(t, now.Equal(got))

	_, err = RunTime("not-a-ulid")
	assert.Error(t, err)
}
