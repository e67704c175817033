package repository

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	coursesCollection  = "courses"
	lecturesCollection = "lectures"
	progressCollection = "progresses"
	paymentsCollection = "payments"
)

func NewMongoStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		Users:    &mongoUsers{col: db.Collection(usersCollection)},
		Courses:  &mongoCourses{db: db},
		Lectures: &mongoLectures{col: db.Collection(lecturesCollection), progress: db.Collection(progressCollection)},
		Progress: &mongoProgress{col: db.Collection(progressCollection)},
		Payments: &mongoPayments{col: db.Collection(paymentsCollection)},
		close:    client.Disconnect,
	}
}

// EnsureIndexes creates the unique indexes the atomic operations rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "subscription", Value: 1}}},
		},
		lecturesCollection: {
			{Keys: bson.D{{Key: "course", Value: 1}}},
		},
		progressCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "course", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		paymentsCollection: {
			{Keys: bson.D{{Key: "orderId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return pkgerrors.Wrapf(err, "create indexes on %s", name)
		}
	}
	return nil
}

func mongoErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return pkgerrors.Wrap(err, op)
	}
}

func now() time.Time {
	return time.Now().UTC()
}
