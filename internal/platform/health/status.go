package health

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// State 定义了系统健康状态的枚举类型
type State int

const (
	StateHealthy State = iota
	StateDegraded
	StateRebuilding
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateRebuilding:
		return "rebuilding"
	}
	return "unknown"
}

// statusManager 负责线程安全地管理和提供系统的健康状态。
type statusManager struct {
	mu             sync.RWMutex
	currentState   State
	lastKnownRunID string
}

func newStatusManager() *statusManager {
	return &statusManager{currentState: StateHealthy}
}

var globalStatus = newStatusManager()

// GetState 返回当前的系统健康状态。
func GetState() State {
	return globalStatus.state()
}

func (sm *statusManager) state() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState
}

// SetInitialRunID 在应用启动时设置初始的Redis run_id。
func (sm *statusManager) SetInitialRunID(runID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.lastKnownRunID = runID
}

// Assess 根据一次检查的结果推进状态，返回是否需要重建缓存。
func (sm *statusManager) Assess(isCurrentlyConnected bool, newRunID string) (needsRebuild bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	switch sm.currentState {
	case StateHealthy:
		if !isCurrentlyConnected {
			sm.currentState = StateDegraded
			log.Warn().Msg("健康检查: Redis连接丢失，系统状态 -> [降级]")
		} else if sm.lastKnownRunID != "" && sm.lastKnownRunID != newRunID {
			sm.currentState = StateRebuilding
			needsRebuild = true
			log.Warn().Str("from", sm.lastKnownRunID).Str("to", newRunID).Msg("健康检查: 检测到Redis重启，系统状态 -> [重建中]")
		}
	case StateDegraded:
		if isCurrentlyConnected {
			if sm.lastKnownRunID != "" && sm.lastKnownRunID != newRunID {
				sm.currentState = StateRebuilding
				needsRebuild = true
				log.Warn().Str("from", sm.lastKnownRunID).Str("to", newRunID).Msg("健康检查: Redis已恢复但检测到重启，系统状态 -> [重建中]")
			} else {
				sm.currentState = StateHealthy
				log.Info().Msg("健康检查: Redis连接已恢复，系统状态 -> [健康]")
			}
		}
	case StateRebuilding:
		if !isCurrentlyConnected {
			sm.currentState = StateDegraded
			log.Warn().Msg("健康检查: 在缓存重建期间Redis连接再次丢失，系统状态 -> [降级]")
		} else {
			// 仍处于重建状态说明上次重建失败
			needsRebuild = true
			log.Info().Msg("健康检查: 系统处于[重建中]状态，将再次尝试重建缓存")
		}
	}

	if isCurrentlyConnected {
		sm.lastKnownRunID = newRunID
	}

	return needsRebuild
}

// MarkRebuildComplete 在一次重建尝试之后调用。
// 重建期间Redis再次重启时保持[重建中]，等待下一轮检查。
func (sm *statusManager) MarkRebuildComplete(success bool, runIDAfterRebuild string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.currentState != StateRebuilding {
		return
	}

	if success && sm.lastKnownRunID != runIDAfterRebuild {
		log.Error().Str("from", sm.lastKnownRunID).Str("to", runIDAfterRebuild).Msg("健康检查: 缓存重建期间检测到Redis再次重启，重建无效")
		sm.lastKnownRunID = runIDAfterRebuild
		return
	}

	if success {
		sm.currentState = StateHealthy
		log.Info().Msg("健康检查: 缓存重建成功，系统状态 -> [健康]")
	} else {
		log.Error().Msg("健康检查: 缓存重建失败，系统状态保持 [重建中] 以待重试")
	}
}
