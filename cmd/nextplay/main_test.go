package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/engine"
	"github.com/rushteam/nextplay/store"
)

const testDataset = `
games:
  - {id: 1, name: Alpha, genres: action, popularity_score: 0.2}
  - {id: 2, name: Beta, genres: action, popularity_score: 0.9}
  - {id: 3, name: Gamma, genres: puzzle, popularity_score: 0.5}
users:
  - {id: u1, name: alice}
ratings:
  - {user_id: u1, game_id: 1, rating: 5}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportFile(t *testing.T) {
	c, err := store.NewMemoryCatalog(nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, importFile(ctx, c, writeFile(t, "data.yaml", testDataset)))

	games, err := c.GetAllItems(ctx)
	require.NoError(t, err)
	require.Len(t, games, 3)
	assert.Equal(t, "Beta", games[1].Name)
	assert.Equal(t, 0.9, games[1].PopularityScore)

	users, err := c.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.User{{ID: "u1", Name: "alice"}}, users)

	ratings, err := c.GetAllRatings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Rating{{UserID: "u1", ItemID: 1, Value: 5}}, ratings)

	bad := writeFile(t, "bad.yaml", "ratings:\n  - {user_id: u1, game_id: 42, rating: 3}\n")
	assert.True(t, core.IsNotFound(importFile(ctx, c, bad)))
}

func TestWriteTrainingCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTrainingCSV(&buf, []engine.TrainingRow{
		{UserID: "u1", ItemID: 1, ContentScore: 0, CollabScore: 1.5, PopularityScore: 0.25, Liked: true},
		{UserID: "u2", ItemID: 3, Liked: false},
	}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"user_id,game_id,content_score,collab_score,popularity_score,liked",
		"u1,1,0,1.5,0.25,1",
		"u2,3,0,0,0,0",
	}, lines)
}

func TestPopularCommand(t *testing.T) {
	data := writeFile(t, "data.yaml", testDataset)
	cfg := writeFile(t, "nextplay.yaml", "database:\n  driver: memory\n  dsn: "+data+"\n")

	var out bytes.Buffer
	rootCommand.SetOut(&out)
	rootCommand.SetArgs([]string{"--config", cfg, "popular", "u1", "--json"})
	t.Cleanup(func() {
		rootCommand.SetOut(nil)
		rootCommand.SetArgs(nil)
		asJSON = false
		topN = 0
	})
	require.NoError(t, rootCommand.Execute())

	var items []core.PopularItem
	require.NoError(t, json.Unmarshal(out.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].ItemID)
	assert.Equal(t, int64(3), items[1].ItemID)
}

func runCommand(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	data := writeFile(t, "data.yaml", testDataset)
	cfg := writeFile(t, "nextplay.yaml", "database:\n  driver: memory\n  dsn: "+data+"\n")

	var out bytes.Buffer
	rootCommand.SetOut(&out)
	rootCommand.SetArgs(append([]string{"--config", cfg}, args...))
	t.Cleanup(func() {
		rootCommand.SetOut(nil)
		rootCommand.SetArgs(nil)
		asJSON = false
		topN = 0
		for _, c := range rootCommand.Commands() {
			c.Flags().VisitAll(func(f *pflag.Flag) {
				f.Changed = false
				_ = f.Value.Set(f.DefValue)
			})
		}
	})
	err := rootCommand.Execute()
	return out.Bytes(), err
}

func TestNegativeTopIsRejected(t *testing.T) {
	_, err := runCommand(t, "popular", "u1", "--top=-1")
	assert.True(t, core.IsInvalidInput(err))
}

func TestRecommendContentCommand(t *testing.T) {
	out, err := runCommand(t, "recommend-content", "u1", "--json")
	require.NoError(t, err)

	var items []core.RecalledItem
	require.NoError(t, json.Unmarshal(out, &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Beta", items[0].Name)
	assert.Equal(t, int64(3), items[1].ItemID)
}

func TestGamesThreshold(t *testing.T) {
	out, err := runCommand(t, "games", "u1", "--threshold=6", "--json")
	require.NoError(t, err)

	var games []core.RatedGame
	require.NoError(t, json.Unmarshal(out, &games))
	assert.Empty(t, games)
}
