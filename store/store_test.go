package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/nextplay/core"
)

func seedGames() []core.Game {
	return []core.Game{
		{ID: 1, Name: "Alpha", Genres: "RPG"},
		{ID: 2, Name: "Beta", Genres: "Shooter"},
		{ID: 3, Name: "Gamma", Genres: "RPG"},
	}
}

type catalogStore interface {
	core.CatalogSource
	core.RatingSource
	core.RatingWriter
	core.PopularityWriter
	core.UserStore
	core.Versioned
}

func exerciseCatalog(t *testing.T, s catalogStore) {
	ctx := context.Background()

	games, err := s.GetAllItems(ctx)
	require.NoError(t, err)
	require.Len(t, games, 3)
	assert.Equal(t, int64(1), games[0].ID)

	v0, err := s.Version(ctx)
	require.NoError(t, err)

	require.NoError(t, s.AddOrUpdateRating(ctx, "u1", 1, 5))
	require.NoError(t, s.AddOrUpdateRating(ctx, "u1", 1, 2))
	require.NoError(t, s.AddOrUpdateRating(ctx, "u1", 2, 4))

	ratings, err := s.GetAllRatings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Rating{
		{UserID: "u1", ItemID: 1, Value: 2},
		{UserID: "u1", ItemID: 2, Value: 4},
	}, ratings)

	v1, err := s.Version(ctx)
	require.NoError(t, err)
	assert.Greater(t, v1, v0)

	err = s.AddOrUpdateRating(ctx, "u1", 99, 3)
	assert.True(t, core.IsNotFound(err))
	err = s.AddOrUpdateRating(ctx, "", 1, 3)
	assert.True(t, core.IsInvalidInput(err))

	require.NoError(t, s.UpdatePopularityScores(ctx, map[int64]float64{2: 0.8, 42: 1}))
	games, err = s.GetAllItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.8, games[1].PopularityScore)

	id, err := s.AddUser(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
	id, err = s.AddUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "u2", id)
	_, err = s.AddUser(ctx, " ")
	assert.True(t, core.IsInvalidInput(err))

	users, err := s.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.User{{ID: "u1", Name: "ann"}, {ID: "u2", Name: "bob"}}, users)
}

func TestMemoryCatalog(t *testing.T) {
	c, err := NewMemoryCatalog(seedGames())
	require.NoError(t, err)
	exerciseCatalog(t, c)

	_, err = NewMemoryCatalog([]core.Game{{ID: 0, Name: "x"}})
	assert.True(t, core.IsInvalidInput(err))
}

func TestSQLStoreSQLite(t *testing.T) {
	s, err := OpenSQLStore(DriverSQLite, filepath.Join(t.TempDir(), "nextplay.db"))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.PutGames(context.Background(), seedGames()))
	exerciseCatalog(t, s)
}

func TestOpenSQLStoreUnknownDriver(t *testing.T) {
	_, err := OpenSQLStore("oracle", "")
	assert.True(t, core.IsNotSupported(err))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	defer m.Close()

	_, err := m.Get(ctx, "k")
	assert.True(t, core.IsStoreNotFound(err))
	require.NoError(t, m.Set(ctx, "k", []byte("v")))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
	require.NoError(t, m.Delete(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.Error(t, err)

	require.NoError(t, m.ZAdd(ctx, "z", 0.5, "1"))
	require.NoError(t, m.ZAdd(ctx, "z", 0.9, "2"))
	require.NoError(t, m.ZAdd(ctx, "z", 0.1, "3"))
	members, err := m.ZRange(ctx, "z", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1", "3"}, members)
	members, err = m.ZRange(ctx, "z", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, members)
	score, err := m.ZScore(ctx, "z", "1")
	require.NoError(t, err)
	assert.Equal(t, 0.5, score)
	_, err = m.ZScore(ctx, "z", "9")
	assert.True(t, core.IsStoreNotFound(err))
	assert.NoError(t, m.Close())
}
