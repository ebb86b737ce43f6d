package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/maksimkurb/keen-ipmon/src/internal/core"
	ipmonerrors "github.com/maksimkurb/keen-ipmon/src/internal/errors"
	"github.com/maksimkurb/keen-ipmon/src/internal/log"
	"github.com/maksimkurb/keen-ipmon/src/internal/service"
	"github.com/maksimkurb/keen-ipmon/src/internal/store"
)

const (
	stopTimeout     = 30 * time.Second
	withdrawTimeout = 10 * time.Second
)

// ServiceManager manages the lifecycle of the reconciliation engine and
// feeds it the state file. It can be started, stopped and restarted.
type ServiceManager struct {
	mu              sync.RWMutex
	deps            *core.AppDependencies
	statePath       string
	monitorInterval time.Duration

	engine  *service.Engine
	watcher *RestartableRunner
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// stateChecksum identifies the state file content in the store.
	stateChecksum string
}

// NewServiceManager creates a service manager. A zero monitorInterval
// disables state file polling; Reload still picks up changes.
func NewServiceManager(deps *core.AppDependencies, statePath string, monitorInterval time.Duration) *ServiceManager {
	return &ServiceManager{
		deps:            deps,
		statePath:       statePath,
		monitorInterval: monitorInterval,
	}
}

// IsRunning returns true if the service is currently running
func (sm *ServiceManager) IsRunning() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.running
}

// Start loads the state file and starts the engine in a goroutine. A missing
// or broken state file is not fatal: the engine starts empty and picks the
// file up on the next reload.
func (sm *ServiceManager) Start() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.running {
		return fmt.Errorf("service is already running")
	}

	if _, err := sm.reloadLocked(true); err != nil {
		log.Warnf("Starting without service state: %v", err)
	}

	engine := sm.deps.NewEngine()
	if err := engine.Start(); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		engine.Run(ctx)
	}()

	sm.engine = engine
	sm.cancel = cancel
	sm.done = done
	sm.running = true

	if sm.monitorInterval > 0 {
		sm.watcher = NewRestartableRunner(RunnerConfig{Name: "State watcher"}, sm.watch)
		if err := sm.watcher.Start(ctx); err != nil {
			log.Errorf("Failed to start state watcher: %v", err)
		}
		log.Infof("Watching %s every %v", sm.statePath, sm.monitorInterval)
	}

	log.Infof("Service started successfully")
	return nil
}

// Stop withdraws the installed routes and stops the engine.
func (sm *ServiceManager) Stop() error {
	sm.mu.Lock()
	if !sm.running {
		sm.mu.Unlock()
		return fmt.Errorf("service is not running")
	}
	engine, watcher, cancel, done := sm.engine, sm.watcher, sm.cancel, sm.done
	sm.watcher = nil
	sm.running = false
	sm.mu.Unlock()

	log.Infof("Stopping service...")

	// The watcher takes the lock on every tick.
	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			log.Errorf("Failed to stop state watcher: %v", err)
		}
	}

	withdrawCtx, cancelWithdraw := context.WithTimeout(context.Background(), withdrawTimeout)
	if err := engine.Withdraw(withdrawCtx); err != nil {
		log.Errorf("Failed to withdraw routes: %v", err)
	}
	cancelWithdraw()

	cancel()
	select {
	case <-done:
	case <-time.After(stopTimeout):
		return fmt.Errorf("timeout waiting for service to stop")
	}

	log.Infof("Service stopped successfully")
	return nil
}

// Restart stops the service if it runs and starts it again.
func (sm *ServiceManager) Restart() error {
	if sm.IsRunning() {
		if err := sm.Stop(); err != nil {
			return fmt.Errorf("failed to stop service: %w", err)
		}
	}
	return sm.Start()
}

// Reload re-reads the state file and applies it to the store. The store is
// left untouched when the file is missing, malformed or invalid.
func (sm *ServiceManager) Reload() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	_, err := sm.reloadLocked(true)
	return err
}

// Reconcile forces a full pass over the current store content.
func (sm *ServiceManager) Reconcile() error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.running {
		return fmt.Errorf("service is not running")
	}
	sm.engine.Reconcile()
	return nil
}

// Status returns the engine status.
func (sm *ServiceManager) Status(ctx context.Context) (*service.Status, error) {
	sm.mu.RLock()
	engine := sm.engine
	running := sm.running
	sm.mu.RUnlock()

	if !running {
		return nil, fmt.Errorf("service is not running")
	}
	return engine.Status(ctx)
}

// reloadLocked applies the state file when its checksum differs from the
// applied one, or always when force is set. Reports whether it applied.
func (sm *ServiceManager) reloadLocked(force bool) (bool, error) {
	state, checksum, err := store.LoadStateFile(sm.statePath)
	if err != nil {
		return false, err
	}
	if !force && checksum == sm.stateChecksum {
		return false, nil
	}

	if err := sm.deps.Validator().ValidateState(state); err != nil {
		return false, fmt.Errorf("state file validation failed: %w", err)
	}

	sm.deps.ConfigStore().Apply(state.Snapshot())
	sm.stateChecksum = checksum
	log.Infof("Applied state file %s: %d services", sm.statePath, len(state.Services))
	return true, nil
}

// watch polls the state file until ctx is canceled.
func (sm *ServiceManager) watch(ctx context.Context) error {
	ticker := time.NewTicker(sm.monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sm.mu.Lock()
			_, err := sm.reloadLocked(false)
			sm.mu.Unlock()

			switch {
			case err == nil:
			case errors.Is(err, ipmonerrors.ErrConfigNotFound):
				log.Debugf("State file check: %v", err)
			default:
				log.Warnf("State file check failed: %v", err)
			}
		}
	}
}
