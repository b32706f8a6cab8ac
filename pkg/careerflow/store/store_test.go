package store_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/conversation"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState(id string) *conversation.State {
	s := conversation.New(id)
	s.BeginTurn("Please analyze my LinkedIn profile: https://www.linkedin.com/in/test and assess my fit for the target role: 'Data Engineer'.")
	s.Profile = &conversation.Profile{
		URL:       "https://www.linkedin.com/in/test",
		Source:    "LinkedIn",
		Items:     []json.RawMessage{json.RawMessage(`{"fullName":"Test User"}`)},
		FetchedAt: time.Now().UTC(),
	}
	s.Append(conversation.AssistantMessage(string(conversation.NodeProfileAnalyzer), conversation.KindResult, "Strong summary."))
	s.Complete(conversation.StageProfileAnalysis)
	s.NextNode = conversation.NodeJobFitAnalyzer
	s.Routes = []conversation.RouteRecord{{Node: conversation.NodeProfileAnalyzer, Flags: "000"}}
	return s
}

func stores(t *testing.T) map[string]store.Store {
	t.Helper()
	sqlite, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	mem := store.NewMemoryStore()
	t.Cleanup(func() {
		_ = sqlite.Close()
		_ = mem.Close()
	})
	return map[string]store.Store{"memory": mem, "sqlite": sqlite}
}

func assertSameState(t *testing.T, want, got *conversation.State) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Turn, got.Turn)
	assert.Equal(t, want.TurnStart, got.TurnStart)
	assert.Equal(t, want.NextNode, got.NextNode)
	assert.Equal(t, want.ProfileURL, got.ProfileURL)
	assert.Equal(t, want.TargetRole, got.TargetRole)
	assert.Equal(t, want.Completed, got.Completed)
	assert.Equal(t, want.Routes, got.Routes)
	require.Len(t, got.Transcript, len(want.Transcript))
	for i := range want.Transcript {
		assert.Equal(t, want.Transcript[i].Speaker, got.Transcript[i].Speaker)
		assert.Equal(t, want.Transcript[i].Role, got.Transcript[i].Role)
		assert.Equal(t, want.Transcript[i].Kind, got.Transcript[i].Kind)
		assert.Equal(t, want.Transcript[i].Content, got.Transcript[i].Content)
		assert.True(t, want.Transcript[i].CreatedAt.Equal(got.Transcript[i].CreatedAt))
	}
	require.NotNil(t, got.Profile)
	assert.Equal(t, want.Profile.URL, got.Profile.URL)
	assert.JSONEq(t, string(want.Profile.Items[0]), string(got.Profile.Items[0]))
}

func TestStore_RoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := sampleState("conv-1")

			require.NoError(t, s.Put(ctx, "conv-1", want))
			got, err := s.Get(ctx, "conv-1")
			require.NoError(t, err)

			assertSameState(t, want, got)
		})
	}
}

func TestStore_NotFoundAndDelete(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Get(ctx, "missing")
			assert.ErrorIs(t, err, store.ErrNotFound)

			require.NoError(t, s.Put(ctx, "x", sampleState("x")))
			require.NoError(t, s.Delete(ctx, "x"))
			require.NoError(t, s.Delete(ctx, "x"))

			_, err = s.Get(ctx, "x")
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestStore_PutOverwritesAndIsolates(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			state := sampleState("c")
			require.NoError(t, s.Put(ctx, "c", state))

			state.Append(conversation.UserMessage("more"))
			got, err := s.Get(ctx, "c")
			require.NoError(t, err)
			assert.Len(t, got.Transcript, 2, "stored copy must not see later appends")

			require.NoError(t, s.Put(ctx, "c", state))
			got, err = s.Get(ctx, "c")
			require.NoError(t, err)
			assert.Len(t, got.Transcript, 3)
		})
	}
}

func TestStore_List(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			older := sampleState("older")
			older.UpdatedAt = time.Now().Add(-time.Hour).UTC()
			newer := sampleState("newer")

			require.NoError(t, s.Put(ctx, "older", older))
			require.NoError(t, s.Put(ctx, "newer", newer))

			list, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "newer", list[0].ID)
			assert.Equal(t, "100", list[0].Flags)
			assert.Equal(t, 2, list[0].Messages)
			assert.Equal(t, 1, list[0].Turn)
		})
	}
}

func TestStore_Closed(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Close())
			require.NoError(t, s.Close())

			_, err := s.Get(ctx, "a")
			assert.ErrorIs(t, err, store.ErrStoreClosed)
			assert.ErrorIs(t, s.Put(ctx, "a", sampleState("a")), store.ErrStoreClosed)
		})
	}
}

func TestStore_EmptyID(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, s.Put(context.Background(), "", sampleState("")), store.ErrEmptyID)
		})
	}
}

func TestStore_Concurrent(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					id := []string{"a", "b", "c"}[i%3]
					assert.NoError(t, s.Put(ctx, id, sampleState(id)))
					_, err := s.Get(ctx, id)
					assert.NoError(t, err)
				}(i)
			}
			wg.Wait()

			list, err := s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 3)
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "agent_checkpoint.sqlite")
	ctx := context.Background()

	s1, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	want := sampleState("conv-1")
	require.NoError(t, s1.Put(ctx, "conv-1", want))
	require.NoError(t, s1.Close())

	s2, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, "conv-1")
	require.NoError(t, err)
	assertSameState(t, want, got)
}

func TestOpen(t *testing.T) {
	s, err := store.Open("memory")
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, s)

	s, err = store.Open(filepath.Join(t.TempDir(), "db.sqlite"))
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &store.SQLiteStore{}, s)
}

func TestUnmarshal_RejectsUnknownVersion(t *testing.T) {
	_, err := store.Unmarshal([]byte(`{"version": 99, "state": {"id": "x"}}`))
	assert.ErrorContains(t, err, "unsupported version")
}
