package wallet

import (
	"context"
	"fmt"
	"sync"

	evbus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"
)

// TopicWalletStatus 会话状态变更事件主题
const TopicWalletStatus = "wallet:status"

// Session 会话快照
//
// Loading只在连接过程中为真（等待签名器授权的窗口可能长达数分钟）
type Session struct {
	Connected bool   `json:"connected"`
	Loading   bool   `json:"loading,omitempty"`
	Address   string `json:"address,omitempty"`
	Kind      Kind   `json:"kind,omitempty"`
}

// Manager 钱包会话管理器
//
// 维护当前连接状态并在需要签名时委托给激活的外部签名器。
// 所有方法并发安全
type Manager struct {
	registry          KitRegistry
	store             Store
	networkPassphrase string
	logger            *zap.Logger
	bus               evbus.Bus

	mu      sync.RWMutex
	session Session
	kit     Kit
}

// ManagerOption 管理器配置项
type ManagerOption func(*Manager)

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// WithEventBus 设置事件总线，会话状态变更时发布到TopicWalletStatus
func WithEventBus(bus evbus.Bus) ManagerOption {
	return func(m *Manager) { m.bus = bus }
}

// NewManager 创建会话管理器
func NewManager(registry KitRegistry, store Store, networkPassphrase string, opts ...ManagerOption) *Manager {
	m := &Manager{
		registry:          registry,
		store:             store,
		networkPassphrase: networkPassphrase,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect 连接指定类型的签名器并建立会话
//
// 会向签名器请求当前账户地址（用户交互点），成功后持久化会话。
// 任何一步失败都保持断开状态
func (m *Manager) Connect(ctx context.Context, kind Kind) (Session, error) {
	kit, err := m.registry.Resolve(kind)
	if err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	m.session.Loading = true
	loading := m.session
	m.mu.Unlock()
	m.publish(loading)

	address, err := kit.GetAddress(ctx)
	if err != nil {
		m.mu.Lock()
		m.session.Loading = false
		session := m.session
		m.mu.Unlock()
		m.publish(session)
		m.logger.Warn("wallet connect failed",
			zap.String("kind", string(kind)),
			zap.Error(err))
		return Session{}, fmt.Errorf("connect %s: %w", kind, err)
	}

	m.mu.Lock()
	m.session = Session{Connected: true, Address: address, Kind: kind}
	m.kit = kit
	session := m.session
	m.mu.Unlock()

	if err := m.store.Save(address, kind); err != nil {
		// 会话已建立，持久化失败只影响下次恢复
		m.logger.Warn("persist wallet session failed", zap.Error(err))
	}

	m.logger.Info("wallet connected",
		zap.String("kind", string(kind)),
		zap.String("address", address))
	m.publish(session)
	return session, nil
}

// Disconnect 断开会话并清除持久化记录
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	m.session = Session{}
	m.kit = nil
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("clear wallet session: %w", err)
	}
	m.logger.Info("wallet disconnected")
	m.publish(Session{})
	return nil
}

// Restore 从持久化记录恢复上次会话
//
// 乐观恢复：不向签名器验证地址仍然可用，记录存在即视为已连接。
// 代价是恢复出的会话可能已失效，首次签名时才会暴露；
// 收益是恢复路径不触发任何签名器交互。
// 签名器实例延迟到首次签名时解析。
// 无记录时返回断开状态的会话，不视为错误
func (m *Manager) Restore(ctx context.Context) (Session, error) {
	address, kind, err := m.store.Load()
	if err != nil {
		if err == ErrNoSavedSession {
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("restore wallet session: %w", err)
	}

	m.mu.Lock()
	m.session = Session{Connected: true, Address: address, Kind: kind}
	m.kit = nil
	session := m.session
	m.mu.Unlock()

	m.logger.Info("wallet session restored",
		zap.String("kind", string(kind)),
		zap.String("address", address))
	m.publish(session)
	return session, nil
}

// Session 返回当前会话快照
func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// SignTransaction 委托激活签名器对信封签名
//
// 无活跃会话时返回ErrNotConnected
func (m *Manager) SignTransaction(ctx context.Context, envelopeXDR string) (string, error) {
	m.mu.RLock()
	session := m.session
	kit := m.kit
	m.mu.RUnlock()

	if !session.Connected {
		return "", ErrNotConnected
	}

	// 乐观恢复的会话此时才解析签名器
	if kit == nil {
		resolved, err := m.registry.Resolve(session.Kind)
		if err != nil {
			return "", err
		}
		m.mu.Lock()
		if m.kit == nil && m.session.Connected {
			m.kit = resolved
		}
		kit = m.kit
		m.mu.Unlock()
		if kit == nil {
			return "", ErrNotConnected
		}
	}

	signed, err := kit.SignTransaction(ctx, envelopeXDR, SignOptions{
		Address:           session.Address,
		NetworkPassphrase: m.networkPassphrase,
	})
	if err != nil {
		return "", fmt.Errorf("sign with %s: %w", session.Kind, err)
	}
	return signed, nil
}

// publish 发布会话状态变更事件
func (m *Manager) publish(session Session) {
	if m.bus != nil {
		m.bus.Publish(TopicWalletStatus, session)
	}
}
