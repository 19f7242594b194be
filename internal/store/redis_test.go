package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	st := NewRedisStore(mr.Addr(), "", 0)
	t.Cleanup(func() { st.Close() })
	return st, mr
}

func TestPutAndRead(t *testing.T) {
	ctx := context.Background()
	st, _ := newStore(t)
	require.NoError(t, st.Ping(ctx))

	require.NoError(t, st.PutRating(ctx, "stars_off", "a", 1500))
	require.NoError(t, st.PutRating(ctx, "stars_off", "b", 1200))
	require.NoError(t, st.PutRating(ctx, "stars_off", "c", 1700))
	require.NoError(t, st.PutRating(ctx, "stars_on", "a", 1100))

	pop, err := st.Population(ctx, "stars_off")
	require.NoError(t, err)
	assert.Equal(t, []int{1700, 1500, 1200}, pop)

	r, ok, err := st.LastRating(ctx, "stars_on", "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1100, r)

	// Re-rating a player replaces their population entry.
	require.NoError(t, st.PutRating(ctx, "stars_off", "a", 1600))
	pop, err = st.Population(ctx, "stars_off")
	require.NoError(t, err)
	assert.Equal(t, []int{1700, 1600, 1200}, pop)
}

func TestLastRatingUnknown(t *testing.T) {
	st, _ := newStore(t)
	_, ok, err := st.LastRating(context.Background(), "stars_off", "ghost")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestLastRatingRoundsFractional(t *testing.T) {
	st, mr := newStore(t)
	mr.HSet(lastKey+"stars_off", "frac", "1432.6")
	r, ok, err := st.LastRating(context.Background(), "stars_off", "frac")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1433, r)
}

func TestStoreUnavailable(t *testing.T) {
	st, mr := newStore(t)
	mr.Close()
	_, err := st.Population(context.Background(), "stars_off")
	assert.Error(t, err)
	_, _, err = st.LastRating(context.Background(), "stars_off", "a")
	assert.Error(t, err)
}

func TestFractionalRatingsAgree(t *testing.T) {
	ctx := context.Background()
	st, mr := newStore(t)
	mr.ZAdd(populationKey+"stars_off", 1432.6, "frac")
	mr.ZAdd(populationKey+"stars_off", 1200.5, "half")
	mr.HSet(lastKey+"stars_off", "frac", "1432.6")

	pop, err := st.Population(ctx, "stars_off")
	require.NoError(t, err)
	assert.Equal(t, []int{1433, 1200}, pop)

	r, _, err := st.LastRating(ctx, "stars_off", "frac")
	require.NoError(t, err)
	assert.Equal(t, pop[0], r)
}
