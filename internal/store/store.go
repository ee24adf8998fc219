package store

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
)

const defaultListLimit = 100

// Store wraps the MongoDB collections. Every query is scoped to the owning
// user; there is no cross-user access path.
type Store struct {
	courses  *mongo.Collection
	lectures *mongo.Collection
	notes    *mongo.Collection
}

// New creates a store over the given database.
func New(db *mongo.Database) *Store {
	return &Store{
		courses:  db.Collection("courses"),
		lectures: db.Collection("lectures"),
		notes:    db.Collection("notes"),
	}
}

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageFailed, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageFailed, "ping mongodb")
	}
	return client, nil
}

// EnsureIndexes creates the per-user lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	userIdx := mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}}

	for _, coll := range []*mongo.Collection{s.courses, s.lectures, s.notes} {
		if _, err := coll.Indexes().CreateOne(ctx, userIdx); err != nil {
			return apperrors.Wrap(err, apperrors.CodeStorageFailed, "create index on "+coll.Name())
		}
	}

	courseIdx := mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "courseId", Value: 1}}}
	if _, err := s.lectures.Indexes().CreateOne(ctx, courseIdx); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageFailed, "create course index on lectures")
	}
	return nil
}

func listOptions(limit int64) *options.FindOptions {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)
}

func findAndReturnUpdated() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

// exactNameFilter matches a name exactly, ignoring case.
func exactNameFilter(name string) bson.M {
	return bson.M{"$regex": "^" + regexp.QuoteMeta(name) + "$", "$options": "i"}
}

func wrapFindErr(err error, what string) error {
	if err == mongo.ErrNoDocuments {
		return apperrors.New(apperrors.CodeNotFound, what+" not found")
	}
	return apperrors.Wrap(err, apperrors.CodeStorageFailed, "load "+what)
}
