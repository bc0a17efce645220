package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	client, err := DialRedis(mr.Addr())
	require.NoError(t, err)
	store := NewRedis(client, "blizzapi:", time.Hour)
	defer store.Close()

	key := "https://eu.api.blizzard.com/data/wow/realm/index?namespace=dynamic-eu"
	require.NoError(t, store.Set(ctx, key, []byte(`{"realms":[]}`), time.Second))

	assert.True(t, mr.Exists("blizzapi:"+key))
	v, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"realms":[]}`, string(v))

	mr.FastForward(1500 * time.Millisecond)
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_DefaultTTLAndDelete(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	client, err := DialRedis("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	store := NewRedis(client, "", 30*time.Second)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
	assert.Equal(t, 30*time.Second, mr.TTL("k"))

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_ServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client, err := DialRedis(mr.Addr())
	require.NoError(t, err)
	store := NewRedis(client, "", time.Minute)
	defer store.Close()

	mr.Close()
	_, err = store.Get(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, IsMiss(err))
}

func TestDialRedis_RequiresAddress(t *testing.T) {
	_, err := DialRedis("")
	assert.Error(t, err)
}
