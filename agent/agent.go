package agent

import (
	"sync"
	"time"

	"github.com/canvasflow/canvasflow/action"
	"github.com/canvasflow/canvasflow/analytics"
	"github.com/canvasflow/canvasflow/config"
	"github.com/canvasflow/canvasflow/engine"
	"github.com/canvasflow/canvasflow/logger"
	"github.com/canvasflow/canvasflow/metadata"
	"github.com/canvasflow/canvasflow/persistence"
	"github.com/canvasflow/canvasflow/persistence/inmem"
	"github.com/canvasflow/canvasflow/persistence/redis"
	"github.com/canvasflow/canvasflow/rest"
	"github.com/canvasflow/canvasflow/service"
)

// Agent wires storage, the handler registry, the engine and the HTTP
// surface together according to config, and owns their lifecycle.
type Agent struct {
	Config           config.Config
	registry         *action.Registry
	metadataService  metadata.MetadataService
	executionService *service.WorkflowExecutionService
	httpServer       *rest.Server
	shutdownLock     sync.Mutex
	shutdown         bool
	wg               sync.WaitGroup
}

func New(conf config.Config) (*Agent, error) {
	a := &Agent{
		Config:   conf,
		registry: action.NewRegistry(),
	}
	setup := []func() error{
		a.setupServices,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Registry exposes the handler registry so embedders can plug in their
// service integrations before Start.
func (a *Agent) Registry() *action.Registry {
	return a.registry
}

func (a *Agent) setupServices() error {
	var metadataStorage persistence.MetadataStorage
	var runStorage persistence.RunStorage
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		metadataStorage = redis.NewRedisMetadataStorage(a.Config.RedisConfig)
		runStorage = redis.NewRedisRunStorage(a.Config.RedisConfig)
	default:
		metadataStorage = inmem.NewInMemMetadataStorage()
		runStorage = inmem.NewInMemRunStorage()
	}

	collector, err := analytics.NewDataCollector(a.Config.AnalyticsConfig)
	if err != nil {
		return err
	}

	executor := action.NewActionExecutor(a.registry, action.RetryPolicy{
		MaxRetries: a.Config.MaxRetries,
		BaseDelay:  time.Duration(a.Config.RetryDelaySeconds) * time.Second,
	}).WithScriptTimeout(time.Duration(a.Config.ScriptTimeoutSecs) * time.Second)
	a.metadataService = metadata.NewMetadataService(metadataStorage)
	a.executionService = service.NewWorkflowExecutionService(a.metadataService, runStorage,
		engine.New(executor), collector, &a.wg, a.Config.ExecutorCapacity)
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.metadataService, a.executionService)
	return err
}

func (a *Agent) Start() error {
	a.executionService.Start()
	go func() {
		if err := a.httpServer.Start(); err != nil {
			_ = a.Shutdown()
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	logger.Info("shutting down server")
	a.executionService.Stop()
	err := a.httpServer.Stop()
	a.wg.Wait()
	return err
}
