// Package cache 提供悬赏列表的进程内缓存与后台定时刷新
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
	evbus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"github.com/antigravity/bountyboard/client/core/contract"
	"github.com/antigravity/bountyboard/pkg/types"
)

// TopicBountiesRefreshed 列表刷新完成事件主题
const TopicBountiesRefreshed = "bounties:refreshed"

// 缓存键
const (
	keyAll  = "bounties:all"
	keyOpen = "bounties:open"
)

// ErrNotWarmedUp 缓存尚未完成首次装载
var ErrNotWarmedUp = errors.New("bounty cache not warmed up yet")

// BountyCache 悬赏列表缓存
//
// 后台按固定间隔刷新，与任何交易尝试相互独立：
// 刷新失败时继续提供上一次成功装载的数据
type BountyCache struct {
	store     *bigcache.BigCache
	contracts *contract.InvocationService
	interval  time.Duration
	logger    *zap.Logger
	bus       evbus.Bus

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option 缓存配置项
type Option func(*BountyCache)

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(c *BountyCache) { c.logger = logger }
}

// WithEventBus 设置事件总线
func WithEventBus(bus evbus.Bus) Option {
	return func(c *BountyCache) { c.bus = bus }
}

// NewBountyCache 创建悬赏缓存
func NewBountyCache(contracts *contract.InvocationService, refreshInterval time.Duration, opts ...Option) (*BountyCache, error) {
	// 条目存活期取两个刷新周期，刷新停摆时自然过期
	store, err := bigcache.New(context.Background(), bigcache.DefaultConfig(2*refreshInterval))
	if err != nil {
		return nil, fmt.Errorf("init bounty cache: %w", err)
	}

	c := &BountyCache{
		store:     store,
		contracts: contracts,
		interval:  refreshInterval,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start 启动后台刷新循环，生命周期由Stop结束
func (c *BountyCache) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.loop(loopCtx)
}

// Stop 停止后台刷新循环
func (c *BountyCache) Stop(ctx context.Context) error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return c.store.Close()
}

func (c *BountyCache) loop(ctx context.Context) {
	defer close(c.done)

	// 启动即装载一次，失败不致命，下个周期重试
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("initial bounty refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logger.Warn("bounty refresh failed, serving stale data", zap.Error(err))
			}
		}
	}
}

// Refresh 从链上拉取全量列表并重建缓存
func (c *BountyCache) Refresh(ctx context.Context) error {
	if !c.contracts.Configured() {
		return contract.ErrContractNotConfigured
	}

	all, err := c.contracts.GetAllBounties(ctx)
	if err != nil {
		return fmt.Errorf("fetch bounties: %w", err)
	}
	sortNewestFirst(all)

	open := make([]types.Bounty, 0, len(all))
	for _, b := range all {
		if b.Status == types.BountyStatusOpen {
			open = append(open, b)
		}
	}

	if err := c.put(keyAll, all); err != nil {
		return err
	}
	if err := c.put(keyOpen, open); err != nil {
		return err
	}

	c.logger.Debug("bounty cache refreshed",
		zap.Int("total", len(all)),
		zap.Int("open", len(open)))
	if c.bus != nil {
		c.bus.Publish(TopicBountiesRefreshed, len(all))
	}
	return nil
}

// All 返回全量列表（新创建的在前）
func (c *BountyCache) All() ([]types.Bounty, error) {
	return c.get(keyAll)
}

// Open 返回开放中列表（新创建的在前）
func (c *BountyCache) Open() ([]types.Bounty, error) {
	return c.get(keyOpen)
}

// ByUser 返回指定用户创建的悬赏，基于缓存过滤
func (c *BountyCache) ByUser(user string) ([]types.Bounty, error) {
	all, err := c.get(keyAll)
	if err != nil {
		return nil, err
	}
	mine := make([]types.Bounty, 0)
	for _, b := range all {
		if b.Creator == user {
			mine = append(mine, b)
		}
	}
	return mine, nil
}

func (c *BountyCache) put(key string, bounties []types.Bounty) error {
	data, err := json.Marshal(bounties)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	if err := c.store.Set(key, data); err != nil {
		return fmt.Errorf("store cache entry %s: %w", key, err)
	}
	return nil
}

func (c *BountyCache) get(key string) ([]types.Bounty, error) {
	data, err := c.store.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, ErrNotWarmedUp
		}
		return nil, fmt.Errorf("read cache entry %s: %w", key, err)
	}
	var bounties []types.Bounty
	if err := json.Unmarshal(data, &bounties); err != nil {
		return nil, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return bounties, nil
}

// sortNewestFirst 按创建顺序倒排，ID单调递增所以直接按ID降序
func sortNewestFirst(bounties []types.Bounty) {
	sort.SliceStable(bounties, func(i, j int) bool {
		return bounties[i].ID > bounties[j].ID
	})
}
