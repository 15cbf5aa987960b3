package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"coinease-backend/internal/application/payouts"
	"coinease-backend/internal/application/scheduler"
	"coinease-backend/internal/infrastructure/locks"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping() error { return p.err }

func TestCollectHealth_WithNilRedis(t *testing.T) {
	result := CollectHealth(context.Background(), nil, nil, nil)
	assert.Equal(t, "issue", result.Status)
	assert.Equal(t, "disconnected", result.Dependencies["database"].Status)
	assert.Equal(t, "disconnected", result.Dependencies["redis"].Status)
	assert.Equal(t, 0, result.Traffic.TotalRequests)
	assert.Empty(t, result.Jobs)
}

func TestCollectHealth_WithMiniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	result := CollectHealth(ctx, rdb, pinger{}, nil)
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "connected", result.Dependencies["redis"].Status)
	assert.Equal(t, "100", result.Traffic.SuccessRate)
	assert.Nil(t, result.LastPayout)

	// same keys the health marker writes
	require.NoError(t, rdb.Set(ctx, "health:global:req_total", "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:req_errors", "2", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:res_time_total", "150.5", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:res_count", "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:start_time", "1000000", 0).Err())
	require.NoError(t, rdb.Set(ctx, payouts.KeyLastRun, `{"evaluated":3,"failed":0}`, 0).Err())

	result2 := CollectHealth(ctx, rdb, pinger{}, nil)
	assert.Equal(t, 10, result2.Traffic.TotalRequests)
	assert.Equal(t, 2, result2.Traffic.FailedCount)
	assert.Equal(t, 8, result2.Traffic.SuccessCount)
	assert.Equal(t, "80.0", result2.Traffic.SuccessRate)
	assert.Equal(t, "15.05", result2.Traffic.AvgResponseTime)
	assert.EqualValues(t, 3, result2.LastPayout["evaluated"])
}

func TestCollectHealth_DBErrorAndJobs(t *testing.T) {
	s := scheduler.New(locks.NewLocalLocker(), time.Minute)
	s.Register(scheduler.Job{Name: "noop", Interval: time.Minute})

	result := CollectHealth(context.Background(), nil, pinger{err: errors.New("down")}, s)
	assert.Equal(t, "error", result.Dependencies["database"].Status)
	assert.Equal(t, "issue", result.Status)
	require.Len(t, result.Jobs, 1)
	assert.Equal(t, "noop", result.Jobs[0].Name)
	assert.Equal(t, "1m0s", result.Jobs[0].Interval)
}
