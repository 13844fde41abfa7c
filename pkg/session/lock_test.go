package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/reliant/configurator/pkg/adapters/memory"
	"github.com/reliant/configurator/pkg/domain"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.Save(ctx, sid, &domain.Flow{SessionID: sid})
		_, _ = mgr.Transition(ctx, sid, func(ctx context.Context, f *domain.Flow) (*domain.Flow, error) {
			return f, nil
		})
		_ = mgr.Delete(ctx, sid)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
