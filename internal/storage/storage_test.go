package storage

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/keshon/jukebox/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandHistoryIsBounded(t *testing.T) {
	cfg := datastore.DefaultConfig(filepath.Join(t.TempDir(), "store.json"))
	cfg.AutoSaveInterval = 0
	s, err := New(cfg)
	require.NoError(t, err)
	defer s.Close()

	for i := range commandHistoryLimit + 5 {
		require.NoError(t, s.AppendCommandToHistory("g1", CommandHistoryRecord{
			UserID:   "u",
			Command:  "play",
			Param:    fmt.Sprint(i),
			Datetime: time.Now(),
		}))
	}

	history, err := s.FetchCommandHistory("g1")
	require.NoError(t, err)
	require.Len(t, history, commandHistoryLimit)
	assert.Equal(t, "5", history[0].Param)
	assert.Equal(t, fmt.Sprint(commandHistoryLimit+4), history[len(history)-1].Param)

	empty, err := s.FetchCommandHistory("g2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
