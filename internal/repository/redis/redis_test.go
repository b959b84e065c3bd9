package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(Options{Addr: mr.Addr()})
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	_, err = NewClient(Options{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestSessionRepository(t *testing.T) {
	mr, client := newTestClient(t)
	repo := &SessionRepository{RDB: client}
	ctx := context.Background()

	_, err := repo.Get(ctx, 7)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	require.NoError(t, repo.Save(ctx, 7, "first"))
	require.NoError(t, repo.Save(ctx, 7, "second"))
	token, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "second", token)

	mr.FastForward(UserTokenExpire - time.Minute)
	require.NoError(t, repo.Extend(ctx, 7))
	mr.FastForward(2 * time.Minute)
	_, err = repo.Get(ctx, 7)
	assert.NoError(t, err)

	require.NoError(t, repo.SaveRefresh(ctx, 7, "r1", time.Hour))
	refresh, err := repo.GetRefresh(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "r1", refresh)

	require.NoError(t, repo.Delete(ctx, 7))
	_, err = repo.Get(ctx, 7)
	assert.ErrorIs(t, err, ErrTokenNotFound)
	_, err = repo.GetRefresh(ctx, 7)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestActionTokenConsume(t *testing.T) {
	mr, client := newTestClient(t)
	repo := &ActionTokenRepository{RDB: client}
	ctx := context.Background()

	require.NoError(t, repo.Remember(ctx, "reset", 1, "old", time.Hour))
	require.NoError(t, repo.Remember(ctx, "reset", 1, "new", time.Hour))

	assert.ErrorIs(t, repo.Consume(ctx, "reset", 1, "old"), ErrActionTokenUsed)
	assert.ErrorIs(t, repo.Consume(ctx, "confirm", 1, "new"), ErrActionTokenUsed)
	assert.NoError(t, repo.Consume(ctx, "reset", 1, "new"))
	assert.ErrorIs(t, repo.Consume(ctx, "reset", 1, "new"), ErrActionTokenUsed)

	require.NoError(t, repo.Remember(ctx, "confirm", 2, "tok", time.Minute))
	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, repo.Consume(ctx, "confirm", 2, "tok"), ErrActionTokenUsed)
}

func TestActionTokenThrottle(t *testing.T) {
	mr, client := newTestClient(t)
	repo := &ActionTokenRepository{RDB: client}
	ctx := context.Background()

	require.NoError(t, repo.Throttle(ctx, "confirm", 1, time.Minute))
	assert.ErrorIs(t, repo.Throttle(ctx, "confirm", 1, time.Minute), ErrResendTooOften)
	assert.NoError(t, repo.Throttle(ctx, "confirm", 2, time.Minute))

	mr.FastForward(time.Minute + time.Second)
	assert.NoError(t, repo.Throttle(ctx, "confirm", 1, time.Minute))
}

func TestZanCacheCount(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewZanCacheRepository(client)
	ctx := context.Background()

	_, ok, err := repo.GetCount(ctx, "post", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetCount(ctx, "post", 1, 3))
	v, ok, err := repo.GetCount(ctx, "post", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), v)

	_, ok, _ = repo.GetCount(ctx, "comment", 1)
	assert.False(t, ok)

	require.NoError(t, repo.DeleteCount(ctx, "post", 1))
	_, ok, _ = repo.GetCount(ctx, "post", 1)
	assert.False(t, ok)
}

func TestZanCacheExpireSet(t *testing.T) {
	mr, client := newTestClient(t)
	repo := NewZanCacheRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Seed(ctx, "post", 1, []uint64{10}))
	repo.ExpireSet("post", 1, 20*time.Millisecond)
	_, hit, err := repo.IsMember(ctx, "post", 1, 10)
	require.NoError(t, err)
	assert.True(t, hit)

	assert.Eventually(t, func() bool {
		return !mr.Exists("zan:set:post:1")
	}, time.Second, 10*time.Millisecond)
}

func TestZanCacheMembers(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewZanCacheRepository(client)
	ctx := context.Background()

	// 集合不存在时不回填
	repo.AddMember(ctx, "post", 1, 10)
	_, hit, err := repo.IsMember(ctx, "post", 1, 10)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, repo.Seed(ctx, "post", 1, []uint64{10, 11}))
	liked, hit, err := repo.IsMember(ctx, "post", 1, 11)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.True(t, liked)

	repo.RemoveMember(ctx, "post", 1, 11)
	repo.AddMember(ctx, "post", 1, 12)
	liked, _, _ = repo.IsMember(ctx, "post", 1, 11)
	assert.False(t, liked)
	liked, _, _ = repo.IsMember(ctx, "post", 1, 12)
	assert.True(t, liked)
}

func TestDistLock(t *testing.T) {
	_, client := newTestClient(t)
	lock := &DistLock{RDB: client}
	ctx := context.Background()

	got, err := lock.Acquire(ctx, "post:1", "a")
	require.NoError(t, err)
	assert.True(t, got)

	got, err = lock.Acquire(ctx, "post:1", "b")
	require.NoError(t, err)
	assert.False(t, got)

	// 非持有者释放无效
	require.NoError(t, lock.Release(ctx, "post:1", "b"))
	got, _ = lock.Acquire(ctx, "post:1", "b")
	assert.False(t, got)

	require.NoError(t, lock.Release(ctx, "post:1", "a"))
	got, _ = lock.Acquire(ctx, "post:1", "b")
	assert.True(t, got)
}
