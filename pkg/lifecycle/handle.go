package lifecycle

import (
	"context"
	"time"
)

// Handle 是分发给每个后台服务的生命周期控制器。
type Handle struct {
	ctx context.Context
	// Close 通知Manager其所属的服务已经完成关闭，重复调用是安全的。
	// 它应该在服务的Goroutine退出前通过 defer 来调用。
	Close func()
}

// Ctx 返回Handle内部的ctx
func (h *Handle) Ctx() context.Context {
	return h.ctx
}

// Done 返回一个channel，当生命周期管理器发出停机信号时，该channel会关闭。
func (h *Handle) Done() <-chan struct{} {
	return h.ctx.Done()
}

// Err 在Done()的channel关闭后，返回上下文被取消的原因。
func (h *Handle) Err() error {
	return h.ctx.Err()
}

// Sleep 暂停指定的时长，但如果生命周期句柄被取消，则会提前返回错误。
func (h *Handle) Sleep(duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-h.Done():
		return h.Err()
	case <-timer.C:
		return nil
	}
}
