package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maksimkurb/keen-ipmon/src/internal/api"
	"github.com/maksimkurb/keen-ipmon/src/internal/config"
	"github.com/maksimkurb/keen-ipmon/src/internal/core"
	"github.com/maksimkurb/keen-ipmon/src/internal/log"
)

func CreateServiceCommand() *ServiceCommand {
	sc := &ServiceCommand{
		fs: flag.NewFlagSet("service", flag.ExitOnError),
	}

	sc.fs.BoolVar(&sc.DryRun, "dry-run", false, "Log route changes instead of applying them")
	sc.fs.IntVar(&sc.MonitorInterval, "monitor-interval", -1, "Seconds between state file checks (default: general.interface_monitoring_interval_seconds, 0 disables)")

	return sc
}

type ServiceCommand struct {
	fs  *flag.FlagSet
	cfg *config.Config
	ctx *AppContext

	DryRun          bool
	MonitorInterval int

	deps         *core.AppDependencies
	configHasher *config.ConfigHasher
	serviceMgr   *ServiceManager

	apiServer *api.Server
	apiRunner *RestartableRunner
}

func (s *ServiceCommand) Name() string {
	return s.fs.Name()
}

func (s *ServiceCommand) Init(args []string, ctx *AppContext) error {
	s.ctx = ctx

	if err := s.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	s.cfg = cfg

	s.configHasher = config.NewConfigHasher(ctx.ConfigPath)
	if hash, err := config.CalculateHash(cfg); err != nil {
		log.Warnf("Failed to hash configuration: %v", err)
	} else {
		s.configHasher.SetActiveConfigHash(hash)
	}

	interval := cfg.MonitoringInterval()
	if s.MonitorInterval >= 0 {
		interval = time.Duration(s.MonitorInterval) * time.Second
	}

	s.deps = core.NewAppDependencies(core.AppConfig{Config: cfg, DryRun: s.DryRun})
	s.serviceMgr = NewServiceManager(s.deps, cfg.GetAbsStateFilePath(), interval)

	return nil
}

func (s *ServiceCommand) Run() error {
	log.Infof("Starting keen-ipmon service...")
	defer s.deps.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1)
	defer signal.Stop(sigChan)

	if err := s.serviceMgr.Start(); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	if s.cfg.API.Enable {
		if err := s.startAPIServer(ctx); err != nil {
			log.Errorf("Failed to start API server: %v", err)
			log.Warnf("Status API will not be available")
		}
	} else {
		log.Infof("Status API is disabled")
	}

	log.Infof("Send SIGHUP to reload the state file, SIGUSR1 to force a reconciliation pass")

	for sig := range sigChan {
		switch sig {
		case syscall.SIGHUP:
			log.Infof("Received SIGHUP signal, reloading state file...")
			if err := s.serviceMgr.Reload(); err != nil {
				log.Errorf("Failed to reload state file: %v", err)
			}

		case syscall.SIGUSR1:
			log.Infof("Received SIGUSR1 signal, reconciling...")
			if err := s.serviceMgr.Reconcile(); err != nil {
				log.Errorf("Failed to reconcile: %v", err)
			}

		case syscall.SIGINT, syscall.SIGTERM:
			log.Infof("Received signal %v, shutting down...", sig)
			return s.shutdown()
		}
	}
	return nil
}

// startAPIServer binds the API listener and serves it under a restartable
// runner.
func (s *ServiceCommand) startAPIServer(ctx context.Context) error {
	handler := api.NewHandler(s.serviceMgr, s.deps.InterfaceService(), s.configHasher)
	s.apiServer = api.NewServer(s.cfg.API.ListenAddr, handler)
	if err := s.apiServer.Listen(); err != nil {
		s.apiServer = nil
		return err
	}

	log.Infof("Status API access is restricted to private, loopback and link-local addresses")

	s.apiRunner = NewRestartableRunner(RunnerConfig{
		Name:           "API server",
		RestartBackoff: 2 * time.Second,
	}, func(context.Context) error {
		return s.apiServer.Serve()
	})
	return s.apiRunner.Start(ctx)
}

// shutdown performs graceful shutdown of all components.
func (s *ServiceCommand) shutdown() error {
	if s.apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s.apiServer.Stop(shutdownCtx); err != nil {
			log.Errorf("Error during API server shutdown: %v", err)
		}
		cancel()
	}
	if s.apiRunner != nil {
		if err := s.apiRunner.Stop(); err != nil {
			log.Errorf("Failed to stop API runner: %v", err)
		}
	}

	if err := s.serviceMgr.Stop(); err != nil {
		return fmt.Errorf("failed to stop service: %w", err)
	}

	log.Infof("Service stopped successfully")
	return nil
}
