package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Mutations(t *testing.T) {
	s := New()
	assert.Nil(t, s.Snapshot().Coords)

	s.SetCoords(100.5, 13.7)
	name := "Bangkok"
	s.SetPlaceName(&name)
	s.SetUpdating(true)

	st := s.Snapshot()
	require.NotNil(t, st.Coords)
	assert.Equal(t, 100.5, st.Coords.Lon())
	assert.Equal(t, 13.7, st.Coords.Lat())
	require.NotNil(t, st.PlaceName)
	assert.Equal(t, "Bangkok", *st.PlaceName)
	assert.True(t, st.Updating)

	name = "changed"
	assert.Equal(t, "Bangkok", *s.Snapshot().PlaceName, "session keeps its own copy")

	s.SetPlaceName(nil)
	assert.Nil(t, s.Snapshot().PlaceName)
}

func TestSession_SnapshotIsolated(t *testing.T) {
	s := New()
	s.SetCoords(1, 2)

	st := s.Snapshot()
	st.Coords[0] = 99

	assert.Equal(t, 1.0, s.Snapshot().Coords.Lon())
}

func TestSession_CloseIgnoresMutations(t *testing.T) {
	s := New()
	s.SetCoords(1, 2)
	s.Close()
	s.SetCoords(3, 4)
	s.SetUpdating(true)

	assert.True(t, s.Closed())
	assert.Equal(t, 1.0, s.Snapshot().Coords.Lon())
	assert.False(t, s.Snapshot().Updating)
}

func TestSession_ConcurrentMutations(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.SetCoords(float64(i), float64(i))
			s.SetUpdating(i%2 == 0)
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()

	require.NotNil(t, s.Snapshot().Coords)
}
