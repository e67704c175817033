package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"elearning/backend/models"
)

type mongoProgress struct {
	col *mongo.Collection
}

func (r *mongoProgress) Ensure(ctx context.Context, userID, courseID string) error {
	_, err := r.upsert(ctx, userID, courseID, []string{})
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return mongoErr(err, "ensure progress")
}

// upsert inserts a record with the given completed list unless one exists.
func (r *mongoProgress) upsert(ctx context.Context, userID, courseID string, completed []string) (bool, error) {
	ts := now()
	res, err := r.col.UpdateOne(ctx,
		bson.M{"user": userID, "course": courseID},
		bson.M{"$setOnInsert": bson.M{
			"_id":               models.NewID(),
			"completedLectures": completed,
			"createdAt":         ts,
			"updatedAt":         ts,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount == 1, nil
}

func (r *mongoProgress) Find(ctx context.Context, userID, courseID string) (*models.Progress, error) {
	var progress models.Progress
	if err := r.col.FindOne(ctx, bson.M{"user": userID, "course": courseID}).Decode(&progress); err != nil {
		return nil, mongoErr(err, "find progress")
	}
	if progress.CompletedLectures == nil {
		progress.CompletedLectures = []string{}
	}
	return &progress, nil
}

func (r *mongoProgress) MarkCompleted(ctx context.Context, userID, courseID, lectureID string) (models.ProgressResult, error) {
	// Two concurrent first inserts collide on the unique index; the loser retries
	// and lands on the append branch.
	for attempt := 0; ; attempt++ {
		result, err := r.markCompleted(ctx, userID, courseID, lectureID)
		if mongo.IsDuplicateKeyError(err) && attempt == 0 {
			continue
		}
		return result, mongoErr(err, "mark lecture completed")
	}
}

func (r *mongoProgress) markCompleted(ctx context.Context, userID, courseID, lectureID string) (models.ProgressResult, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"user": userID, "course": courseID, "completedLectures": bson.M{"$ne": lectureID}},
		bson.M{
			"$push": bson.M{"completedLectures": lectureID},
			"$set":  bson.M{"updatedAt": now()},
		},
	)
	if err != nil {
		return 0, err
	}
	if res.ModifiedCount == 1 {
		return models.ProgressAdded, nil
	}
	created, err := r.upsert(ctx, userID, courseID, []string{lectureID})
	if err != nil {
		return 0, err
	}
	if created {
		return models.ProgressCreated, nil
	}
	return models.ProgressAlreadyRecorded, nil
}
