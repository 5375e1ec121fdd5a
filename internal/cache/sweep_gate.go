package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const SweepGateKey = "raffle:sweep:gate"

// SweepGate 節流懶觸發的清理：同一個 interval 內只放行一次
type SweepGate interface {
	Allow(ctx context.Context) (bool, error)
}

type RedisSweepGateImpl struct {
	client   *redis.Client
	key      string
	interval time.Duration
}

// NewRedisSweepGate 多個實例共用同一個 key，interval 為 0 時每次都放行
func NewRedisSweepGate(client *redis.Client, interval time.Duration) SweepGate {
	return &RedisSweepGateImpl{
		client:   client,
		key:      SweepGateKey,
		interval: interval,
	}
}

/*
*

	嘗試取得清理權 (使用Lua腳本確保原子性)
	1. key 仍存在：回傳剩餘毫秒
	2. key 不存在：寫入並設定過期時間
*/
var sweepGateScript = redis.NewScript(`
	local gate_key = KEYS[1]
	local interval_ms = tonumber(ARGV[1])

	local ttl = redis.call('PTTL', gate_key)
	if ttl > 0 then
		return {0, ttl}
	end

	redis.call('SET', gate_key, '1', 'PX', interval_ms)
	return {1, interval_ms}
`)

func (g *RedisSweepGateImpl) Allow(ctx context.Context) (bool, error) {
	if g.interval <= 0 {
		return true, nil
	}

	result, err := sweepGateScript.Run(ctx, g.client, []string{g.key}, g.interval.Milliseconds()).Result()
	if err != nil {
		return false, err
	}

	resSlice, ok := result.([]interface{})
	if !ok || len(resSlice) != 2 {
		return false, errors.New("unexpected result")
	}
	code, ok := resSlice[0].(int64)
	if !ok {
		return false, errors.New("unexpected result")
	}

	return code == 1, nil
}

// LocalSweepGateImpl 單一實例使用的節流，不需要 Redis
type LocalSweepGateImpl struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
	now      func() time.Time
}

func NewLocalSweepGate(interval time.Duration) SweepGate {
	return &LocalSweepGateImpl{
		interval: interval,
		now:      time.Now,
	}
}

func (g *LocalSweepGateImpl) Allow(ctx context.Context) (bool, error) {
	if g.interval <= 0 {
		return true, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now.Before(g.next) {
		return false, nil
	}
	g.next = now.Add(g.interval)
	return true, nil
}
