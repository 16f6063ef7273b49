package mongodb

import (
	"context"
	"errors"
	"time"

	apperrors "forecast-pipeline/internal/shared/errors"
	"forecast-pipeline/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	modelsCollection        = "registered_models"
	modelCountersCollection = "registered_model_counters"
)

// MongoModelRegistry implements the ModelRegistry port on MongoDB. Artifacts are small
// serialized baseline models, stored inline; versions are assigned server-side by a
// per-model counter.
type MongoModelRegistry struct {
	models   *mongo.Collection
	counters *mongo.Collection
	log      logger.Logger
}

type registeredModelDoc struct {
	Name         string           `bson:"name"`
	Version      int64            `bson:"version"`
	Artifact     primitive.Binary `bson:"artifact"`
	RegisteredAt time.Time        `bson:"registered_at"`
}

// NewMongoModelRegistry creates a Mongo-backed model registry
func NewMongoModelRegistry(db *mongo.Database, log logger.Logger) (*MongoModelRegistry, error) {
	registry := &MongoModelRegistry{
		models:   db.Collection(modelsCollection),
		counters: db.Collection(modelCountersCollection),
		log:      log.WithComponent("registry.mongodb"),
	}

	ctx := context.Background()
	versionIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}, {Key: "version", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := registry.models.Indexes().CreateOne(ctx, versionIndex); err != nil {
		return nil, apperrors.NewServiceCallError("failed to create model registry index").WithCause(err)
	}

	return registry, nil
}

// Register stores artifact as a new version of name and returns the assigned version
func (r *MongoModelRegistry) Register(ctx context.Context, name string, artifact []byte) (int64, error) {
	if name == "" {
		return 0, apperrors.NewValidationError("model name is required")
	}
	if len(artifact) == 0 {
		return 0, apperrors.NewValidationError("model artifact is empty")
	}

	version, err := r.nextVersion(ctx, name)
	if err != nil {
		return 0, err
	}

	doc := registeredModelDoc{
		Name:         name,
		Version:      version,
		Artifact:     primitive.Binary{Data: artifact},
		RegisteredAt: time.Now().UTC(),
	}
	if _, err := r.models.InsertOne(ctx, doc); err != nil {
		return 0, apperrors.NewServiceCallError("failed to register model version").
			WithCause(err).
			WithDetail("model", name).
			WithDetail("version", version)
	}

	r.log.Infof("Registered model %s version %d (%d bytes)", name, version, len(artifact))
	return version, nil
}

// Fetch returns the artifact of exactly the requested version
func (r *MongoModelRegistry) Fetch(ctx context.Context, name string, version int64) ([]byte, error) {
	if name == "" {
		return nil, apperrors.NewValidationError("model name is required")
	}

	var doc registeredModelDoc
	err := r.models.FindOne(ctx, bson.M{"name": name, "version": version}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFoundError("model version").
				WithDetail("model", name).
				WithDetail("version", version)
		}
		return nil, apperrors.NewServiceCallError("failed to fetch model version").
			WithCause(err).
			WithDetail("model", name).
			WithDetail("version", version)
	}
	return doc.Artifact.Data, nil
}

func (r *MongoModelRegistry) nextVersion(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Version int64 `bson:"version"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"version": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, apperrors.NewServiceCallError("failed to assign model version").
			WithCause(err).
			WithDetail("model", name)
	}
	return counter.Version, nil
}
