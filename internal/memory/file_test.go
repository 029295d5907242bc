package memory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestFileStore(t *testing.T, opts Options) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), opts, testLogger())
	require.NoError(t, err)
	return s
}

func TestFileStoreLazyDefault(t *testing.T) {
	s := newTestFileStore(t, Options{})
	ctx := context.Background()

	rec, err := s.Load(ctx, "default")
	require.NoError(t, err)
	assert.Nil(t, rec.User.Name)
	assert.Empty(t, rec.Conversations)
	assert.NotNil(t, rec.User.Notes)

	// First Load materializes the file.
	_, err = os.Stat(filepath.Join(s.dir, "default.json"))
	assert.NoError(t, err)
}

func TestFileStoreRoundTrip(t *testing.T) {
	s := newTestFileStore(t, Options{})
	ctx := context.Background()

	name := "Sonu"
	rec := DefaultRecord()
	rec.User.Name = &name
	rec.User.Interests = []string{"design", "chai"}
	rec.User.Notes["city"] = "Mumbai"
	rec.Conversations = []Turn{
		{Role: RoleUser, Message: "hello"},
		{Role: RoleAssistant, Message: "hey! ☕"},
	}

	require.NoError(t, s.Save(ctx, "default", rec))

	got, err := s.Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	// Saving what was loaded and loading again stays deep-equal.
	require.NoError(t, s.Save(ctx, "default", got))
	again, err := s.Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestFileStoreCorruptRecordYieldsDefault(t *testing.T) {
	s := newTestFileStore(t, Options{})
	ctx := context.Background()

	path := filepath.Join(s.dir, "default.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	rec, err := s.Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, DefaultRecord(), rec)
}

func TestFileStoreAppendTruncatesAndTrims(t *testing.T) {
	s := newTestFileStore(t, Options{MaxTurns: 4, TurnRunes: 10})
	ctx := context.Background()

	long := strings.Repeat("x", 50)
	for i := 0; i < 6; i++ {
		require.NoError(t, s.AppendTurns(ctx, "default",
			Turn{Role: RoleUser, Message: fmt.Sprintf("msg-%d %s", i, long)}))
	}

	rec, err := s.Load(ctx, "default")
	require.NoError(t, err)
	require.Len(t, rec.Conversations, 4)

	// Most recent entries retained, in original order.
	assert.True(t, strings.HasPrefix(rec.Conversations[0].Message, "msg-2"))
	assert.True(t, strings.HasPrefix(rec.Conversations[3].Message, "msg-5"))
	for _, turn := range rec.Conversations {
		assert.LessOrEqual(t, len([]rune(turn.Message)), 10)
	}
}

func TestFileStoreAppendsPairPerChatTurn(t *testing.T) {
	s := newTestFileStore(t, Options{})
	ctx := context.Background()

	require.NoError(t, s.AppendTurns(ctx, "levi",
		Turn{Role: RoleUser, Message: "clean your room"},
		Turn{Role: RoleAssistant, Message: "Tch. Already did, brat."},
	))

	rec, err := s.Load(ctx, "levi")
	require.NoError(t, err)
	require.Len(t, rec.Conversations, 2)
	assert.Equal(t, RoleUser, rec.Conversations[0].Role)
	assert.Equal(t, RoleAssistant, rec.Conversations[1].Role)
}

func TestFileStoreReset(t *testing.T) {
	s := newTestFileStore(t, Options{})
	ctx := context.Background()

	require.NoError(t, s.AppendTurns(ctx, "default", Turn{Role: RoleUser, Message: "hi"}))
	require.NoError(t, s.Reset(ctx, "default"))

	rec, err := s.Load(ctx, "default")
	require.NoError(t, err)
	assert.Empty(t, rec.Conversations)
}

func TestFileStoreUpdateProfileMergesNotes(t *testing.T) {
	s := newTestFileStore(t, Options{})
	ctx := context.Background()

	name := "Sonu"
	_, err := s.UpdateProfile(ctx, "default", ProfilePatch{
		Name:  &name,
		Notes: map[string]string{"city": "Mumbai"},
	})
	require.NoError(t, err)

	rec, err := s.UpdateProfile(ctx, "default", ProfilePatch{
		Interests: []string{"art"},
		Notes:     map[string]string{"pet": "cat"},
	})
	require.NoError(t, err)

	require.NotNil(t, rec.User.Name)
	assert.Equal(t, "Sonu", *rec.User.Name)
	assert.Equal(t, []string{"art"}, rec.User.Interests)
	assert.Equal(t, map[string]string{"city": "Mumbai", "pet": "cat"}, rec.User.Notes)
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	s := newTestFileStore(t, Options{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendTurns(ctx, "default", Turn{Role: RoleUser, Message: "hi"}))
	}

	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "stale temp file %s", e.Name())
	}
}

func TestFileStoreConcurrentAppendsLoseNothing(t *testing.T) {
	s := newTestFileStore(t, Options{MaxTurns: 500})
	ctx := context.Background()

	const workers = 8
	const perWorker = 10

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_ = s.AppendTurns(ctx, "default",
					Turn{Role: RoleUser, Message: fmt.Sprintf("w%d-%d", w, i)})
			}
		}(w)
	}
	wg.Wait()

	rec, err := s.Load(ctx, "default")
	require.NoError(t, err)
	assert.Len(t, rec.Conversations, workers*perWorker)
}

func TestSanitizeID(t *testing.T) {
	assert.Equal(t, "default", sanitizeID(""))
	assert.Equal(t, "zero_two", sanitizeID("zero_two"))
	assert.Equal(t, "______etc_passwd", sanitizeID("../../etc/passwd"))
	assert.NotContains(t, sanitizeID("../../etc/passwd"), "/")
	assert.NotContains(t, sanitizeID("a\\b"), "\\")
}
