package mongodb

import (
	"context"
	"errors"
	"time"

	"forecast-pipeline/internal/pipeline/domain/model"
	apperrors "forecast-pipeline/internal/shared/errors"
	"forecast-pipeline/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	groupsCollection   = "feature_groups"
	countersCollection = "feature_group_counters"
)

// MongoFeatureStore implements the FeatureStore port on MongoDB. Each published version
// is one immutable document; version numbers are assigned server-side by a per-group
// counter, so they are monotonically increasing regardless of which client publishes.
type MongoFeatureStore struct {
	groups   *mongo.Collection
	counters *mongo.Collection
	log      logger.Logger
}

type featureGroupDoc struct {
	Group       string             `bson:"group"`
	Version     int64              `bson:"version"`
	Rows        []model.FeatureRow `bson:"rows"`
	PublishedAt time.Time          `bson:"published_at"`
}

// NewMongoFeatureStore creates a Mongo-backed feature store
func NewMongoFeatureStore(db *mongo.Database, log logger.Logger) (*MongoFeatureStore, error) {
	store := &MongoFeatureStore{
		groups:   db.Collection(groupsCollection),
		counters: db.Collection(countersCollection),
		log:      log.WithComponent("featurestore.mongodb"),
	}

	ctx := context.Background()
	versionIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "group", Value: 1}, {Key: "version", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := store.groups.Indexes().CreateOne(ctx, versionIndex); err != nil {
		return nil, apperrors.NewServiceCallError("failed to create feature group index").WithCause(err)
	}

	return store, nil
}

// Publish stores rows as a new version of group and returns the assigned version
func (s *MongoFeatureStore) Publish(ctx context.Context, group string, rows []model.FeatureRow) (int64, error) {
	if group == "" {
		return 0, apperrors.NewValidationError("feature group name is required")
	}
	if len(rows) == 0 {
		return 0, apperrors.NewValidationError("cannot publish an empty feature group version")
	}

	version, err := s.nextVersion(ctx, group)
	if err != nil {
		return 0, err
	}

	doc := featureGroupDoc{
		Group:       group,
		Version:     version,
		Rows:        rows,
		PublishedAt: time.Now().UTC(),
	}
	if _, err := s.groups.InsertOne(ctx, doc); err != nil {
		return 0, apperrors.NewServiceCallError("failed to publish feature group version").
			WithCause(err).
			WithDetail("group", group).
			WithDetail("version", version)
	}

	s.log.Infof("Published feature group %s version %d (%d rows)", group, version, len(rows))
	return version, nil
}

// Fetch returns the rows of exactly the requested version
func (s *MongoFeatureStore) Fetch(ctx context.Context, group string, version int64) ([]model.FeatureRow, error) {
	if group == "" {
		return nil, apperrors.NewValidationError("feature group name is required")
	}

	var doc featureGroupDoc
	err := s.groups.FindOne(ctx, bson.M{"group": group, "version": version}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFoundError("feature group version").
				WithDetail("group", group).
				WithDetail("version", version)
		}
		return nil, apperrors.NewServiceCallError("failed to fetch feature group version").
			WithCause(err).
			WithDetail("group", group).
			WithDetail("version", version)
	}
	return doc.Rows, nil
}

// nextVersion atomically increments the per-group counter and returns the new value
func (s *MongoFeatureStore) nextVersion(ctx context.Context, group string) (int64, error) {
	var counter struct {
		Version int64 `bson:"version"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": group},
		bson.M{"$inc": bson.M{"version": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, apperrors.NewServiceCallError("failed to assign feature group version").
			WithCause(err).
			WithDetail("group", group)
	}
	return counter.Version, nil
}
