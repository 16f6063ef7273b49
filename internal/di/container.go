package di

import (
	"context"
	"fmt"
	"sync"
	"time"

	"forecast-pipeline/internal/handoff"
	handoffconfig "forecast-pipeline/internal/handoff/config"
	featurestoremongo "forecast-pipeline/internal/pipeline/adapter/featurestore/mongodb"
	localstore "forecast-pipeline/internal/pipeline/adapter/objectstore/local"
	s3store "forecast-pipeline/internal/pipeline/adapter/objectstore/s3"
	registrymongo "forecast-pipeline/internal/pipeline/adapter/registry/mongodb"
	pipelineconfig "forecast-pipeline/internal/pipeline/config"
	"forecast-pipeline/internal/pipeline/domain/repository"
	"forecast-pipeline/internal/shared/eventbus"
	"forecast-pipeline/internal/shared/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Container wires the shared infrastructure of the batch jobs and the web API: the
// hand-off store, the external service adapters, the event bus, and the logger. Each
// binary initializes only what it needs.
type Container struct {
	mu sync.Mutex

	Logger logger.Logger
	Bus    *eventbus.EventBus

	Handoff *handoff.Module

	MongoClient   *mongo.Client
	FeatureStore  repository.FeatureStore
	ModelRegistry repository.ModelRegistry
	ArtifactStore repository.ArtifactStore
}

// NewContainer creates a container with the shared logger and event bus
func NewContainer(log logger.Logger) *Container {
	return &Container{
		Logger: log,
		Bus:    eventbus.NewEventBus(log),
	}
}

// InitializeHandoff creates the hand-off store from HANDOFF_* configuration
func (c *Container) InitializeHandoff() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg, err := handoffconfig.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load hand-off configuration: %w", err)
	}
	module, err := handoff.NewModule(cfg, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize hand-off store: %w", err)
	}
	c.Handoff = module
	return nil
}

// InitializeFeatureServices connects MongoDB and creates the feature store and model
// registry adapters
func (c *Container) InitializeFeatureServices(ctx context.Context, cfg *pipelineconfig.PipelineConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	c.MongoClient = client

	db := client.Database(cfg.Mongo.Database)

	featureStore, err := featurestoremongo.NewMongoFeatureStore(db, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize feature store: %w", err)
	}
	c.FeatureStore = featureStore

	registry, err := registrymongo.NewMongoModelRegistry(db, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize model registry: %w", err)
	}
	c.ModelRegistry = registry
	return nil
}

// InitializeArtifactStore creates the object store selected by OBJECT_STORE_BACKEND
func (c *Container) InitializeArtifactStore(ctx context.Context, cfg *pipelineconfig.PipelineConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch cfg.ObjectStore.Backend {
	case pipelineconfig.ObjectStoreS3:
		store, err := s3store.NewArtifactStore(ctx, s3store.Options{
			Bucket:      cfg.ObjectStore.Bucket,
			Region:      cfg.ObjectStore.Region,
			EndpointURL: cfg.ObjectStore.EndpointURL,
		}, c.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize s3 artifact store: %w", err)
		}
		c.ArtifactStore = store

	case pipelineconfig.ObjectStoreLocal:
		store, err := localstore.New(cfg.ObjectStore.LocalRoot, c.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize local artifact store: %w", err)
		}
		c.ArtifactStore = store

	default:
		return fmt.Errorf("unknown object store backend %q", cfg.ObjectStore.Backend)
	}
	return nil
}

// SubscribeRunLogging installs the run lifecycle logging handler on the bus
func (c *Container) SubscribeRunLogging() {
	log := c.Logger.WithComponent("run-events")
	handler := func(ctx context.Context, event eventbus.Event) error {
		if run, ok := event.Data().(*eventbus.RunEvent); ok {
			fields := map[string]interface{}{
				"run_id":   run.RunID,
				"job_kind": run.JobKind,
			}
			if run.Err != nil {
				fields["error"] = run.Err.Error()
			}
			log.WithFields(fields).Infof("Run event: %s", event.Type())
		}
		return nil
	}
	c.Bus.Subscribe(eventbus.EventRunStarted, handler)
	c.Bus.Subscribe(eventbus.EventRunSucceeded, handler)
	c.Bus.Subscribe(eventbus.EventRunFailed, handler)
}

// HealthCheck pings the live backing services
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.MongoClient != nil {
		if err := c.MongoClient.Ping(ctx, nil); err != nil {
			return fmt.Errorf("MongoDB health check failed: %w", err)
		}
	}
	if c.Handoff != nil && c.Handoff.RedisClient != nil {
		if err := c.Handoff.RedisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis health check failed: %w", err)
		}
	}
	return nil
}

// Close releases all held connections in reverse initialization order
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	if c.MongoClient != nil {
		if err := c.MongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to disconnect MongoDB: %w", err))
		}
		c.MongoClient = nil
	}
	if c.Handoff != nil {
		if err := c.Handoff.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close hand-off store: %w", err))
		}
		c.Handoff = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}
	return nil
}
