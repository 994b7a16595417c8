package gormdb

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"chat_core_server/internal/config"
	"chat_core_server/pkg/errorx"

	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*Repositories, *messageRepository) {
	t.Helper()
	repos, err := Init(config.DBConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "chat.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return repos, repos.Message.(*messageRepository)
}

func int64Ptr(v int64) *int64 { return &v }

func TestAppend_AssignsIdsAndReplyLink(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.Append(ctx, "Alice", "hello", nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), first.Id)
	require.Nil(t, first.ReplyTo)
	require.False(t, first.CreatedAt.IsZero())

	second, err := repo.Append(ctx, "Bob", "hi", int64Ptr(1))
	require.NoError(t, err)
	require.Equal(t, int64(2), second.Id)
	require.NotNil(t, second.ReplyTo)
	require.Equal(t, int64(1), *second.ReplyTo)

	got, err := repo.FindById(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "Bob", got.Sender)
	require.Equal(t, "hi", got.Content)
	require.Equal(t, int64(1), *got.ReplyTo)
}

func TestAppend_RejectsInvalidContent(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()

	cases := map[string]string{
		"empty":      "",
		"whitespace": " \t\n ",
		"too long":   strings.Repeat("界", 4001),
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := repo.Append(ctx, "Alice", content, nil)
			require.Error(t, err)
			require.True(t, errorx.IsCode(err, errorx.CodeInvalidParam))
		})
	}

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = repo.Append(ctx, "Alice", strings.Repeat("界", 4000), nil)
	require.NoError(t, err)
}

func TestAppend_RejectsMissingReplyTarget(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Append(ctx, "Alice", "orphan", int64Ptr(42))
	require.Error(t, err)
	require.True(t, errorx.IsCode(err, errorx.CodeInvalidParam))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestAppend_ConcurrentIdsStrictlyIncreasing(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()

	const writers, perWriter = 8, 25
	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if _, err := repo.Append(ctx, "Bot", "tick", nil); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	all, err := repo.ListAfter(ctx, 0, writers*perWriter+10)
	require.NoError(t, err)
	require.Len(t, all, writers*perWriter)
	for i, m := range all {
		require.Equal(t, int64(i+1), m.Id)
		if i > 0 {
			require.False(t, m.CreatedAt.Before(all[i-1].CreatedAt))
		}
	}
}

func TestPagination_RoundTrip(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := repo.Append(ctx, "Alice", "m", nil)
		require.NoError(t, err)
	}

	// 从最新一页开始向前翻页，拼接后应覆盖全部消息且无重复
	page, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	seen := make([]int64, 0, 25)
	for len(page) > 0 {
		for _, m := range page {
			seen = append(seen, m.Id)
		}
		page, err = repo.ListBefore(ctx, page[len(page)-1].Id, 10)
		require.NoError(t, err)
	}
	require.Len(t, seen, 25)
	for i, id := range seen {
		require.Equal(t, int64(25-i), id)
	}

	// 增量同步方向
	var forward []int64
	cursor := int64(0)
	for {
		page, err := repo.ListAfter(ctx, cursor, 7)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		for _, m := range page {
			forward = append(forward, m.Id)
		}
		cursor = page[len(page)-1].Id
	}
	require.Len(t, forward, 25)
	require.Equal(t, int64(1), forward[0])
	require.Equal(t, int64(25), forward[24])
}

func TestListMentioning_CaseSensitiveSubstring(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()

	for _, content := range []string{"ping @Bot", "ping @bot", "nothing here", "@Bot again"} {
		_, err := repo.Append(ctx, "Alice", content, nil)
		require.NoError(t, err)
	}

	got, err := repo.ListMentioning(ctx, 0, "@Bot", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, int64(1), got[0].Id)
	require.Equal(t, int64(4), got[1].Id)

	got, err = repo.ListMentioning(ctx, 1, "@Bot", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(4), got[0].Id)
}

func TestFindById_NotFound(t *testing.T) {
	_, repo := newTestRepo(t)

	_, err := repo.FindById(context.Background(), 99)
	require.Error(t, err)
	require.True(t, errorx.IsNotFound(err))
}

func TestImportLegacy_OnlyOnEmptyStore(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "legacy.jsonl")
	legacy := strings.Join([]string{
		`{"timestamp":"2024-03-01T10:00:00Z","sender":"Alice","content":"first"}`,
		``,
		`not json`,
		`{"timestamp":"2024-03-01T10:01:00Z","sender":"Bob","content":"second"}`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	n, err := repo.ImportLegacy(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	first, err := repo.FindById(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Alice", first.Sender)
	require.True(t, first.CreatedAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))

	// 非空库再次导入为空操作
	n, err = repo.ImportLegacy(ctx, path)
	require.NoError(t, err)
	require.Zero(t, n)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
}

func TestImportLegacy_SkippedWhenStoreHasRows(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Append(ctx, "Alice", "already here", nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "legacy.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"sender":"Bob","content":"old"}`), 0o600))

	n, err := repo.ImportLegacy(ctx, path)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestImportLegacy_MissingFile(t *testing.T) {
	_, repo := newTestRepo(t)

	n, err := repo.ImportLegacy(context.Background(), filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, err)
	require.Zero(t, n)
}
