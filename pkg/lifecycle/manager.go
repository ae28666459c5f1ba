package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Manager 是后台服务的生命周期协调器。
// 它由上层模块（如shutdown）创建和持有，并向各个后台服务分发句柄(Handle)。
type Manager struct {
	name     string
	wg       sync.WaitGroup
	mu       sync.Mutex
	services map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager 创建一个新的生命周期管理器，name 仅用于日志。
func NewManager(name string) *Manager {
	m := &Manager{
		name:     name,
		services: make(map[string]bool),
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

// NewServiceHandle 为一个服务创建一个新的生命周期句柄(Handle)。
// 管理器会自动为这个服务注册并增加WaitGroup计数。
func (m *Manager) NewServiceHandle(name string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx.Err() != nil {
		return nil, fmt.Errorf("生命周期管理器 %s: 已停机，无法注册服务 '%s'", m.name, name)
	}
	if m.services[name] {
		return nil, fmt.Errorf("生命周期管理器 %s: 服务 '%s' 已被注册", m.name, name)
	}
	m.services[name] = true
	m.wg.Add(1)
	log.Debug().Str("manager", m.name).Str("service", name).Msg("服务已注册")

	var once sync.Once
	return &Handle{
		ctx: m.ctx,
		Close: func() {
			once.Do(func() {
				m.mu.Lock()
				defer m.mu.Unlock()
				delete(m.services, name)
				m.wg.Done()
			})
		},
	}, nil
}

// Go 注册服务并在新的goroutine中运行 fn，fn 返回时句柄自动关闭。
func (m *Manager) Go(name string, fn func(h *Handle)) error {
	h, err := m.NewServiceHandle(name)
	if err != nil {
		return err
	}
	go func() {
		defer h.Close()
		fn(h)
	}()
	return nil
}

// Shutdown 广播停机信号。
func (m *Manager) Shutdown() {
	log.Info().Str("manager", m.name).Msg("广播停机信号")
	m.cancel()
}

// WaitWithTimeout 等待所有已注册的服务完成，直到指定的超时。
// 返回超时时仍未退出的服务名。
func (m *Manager) WaitWithTimeout(timeout time.Duration) []string {
	doneChan := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(doneChan)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-doneChan:
		return nil
	case <-timer.C:
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.remainingServices()
	}
}

// remainingServices 必须在持有 m.mu 时调用。
func (m *Manager) remainingServices() []string {
	remaining := make([]string, 0, len(m.services))
	for name := range m.services {
		remaining = append(remaining, name)
	}
	sort.Strings(remaining)
	return remaining
}
