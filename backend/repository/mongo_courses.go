package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"elearning/backend/models"
)

type mongoCourses struct {
	db *mongo.Database
}

func (r *mongoCourses) col() *mongo.Collection {
	return r.db.Collection(coursesCollection)
}

func (r *mongoCourses) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = models.NewID()
	}
	course.CreatedAt = now()
	_, err := r.col().InsertOne(ctx, course)
	return mongoErr(err, "create course")
}

func (r *mongoCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := r.col().FindOne(ctx, bson.M{"_id": id}).Decode(&course); err != nil {
		return nil, mongoErr(err, "find course")
	}
	return &course, nil
}

func (r *mongoCourses) List(ctx context.Context) ([]models.Course, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoCourses) ListByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	if len(ids) == 0 {
		return []models.Course{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *mongoCourses) find(ctx context.Context, filter bson.M) ([]models.Course, error) {
	cur, err := r.col().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, mongoErr(err, "list courses")
	}
	courses := []models.Course{}
	if err := cur.All(ctx, &courses); err != nil {
		return nil, mongoErr(err, "decode courses")
	}
	return courses, nil
}

func (r *mongoCourses) Delete(ctx context.Context, id string) ([]models.Lecture, error) {
	res, err := r.col().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, mongoErr(err, "delete course")
	}
	if res.DeletedCount == 0 {
		return nil, ErrNotFound
	}

	lecturesCol := r.db.Collection(lecturesCollection)
	cur, err := lecturesCol.Find(ctx, bson.M{"course": id})
	if err != nil {
		return nil, mongoErr(err, "find course lectures")
	}
	lectures := []models.Lecture{}
	if err := cur.All(ctx, &lectures); err != nil {
		return nil, mongoErr(err, "decode course lectures")
	}
	if _, err := lecturesCol.DeleteMany(ctx, bson.M{"course": id}); err != nil {
		return nil, mongoErr(err, "delete course lectures")
	}
	if _, err := r.db.Collection(progressCollection).DeleteMany(ctx, bson.M{"course": id}); err != nil {
		return nil, mongoErr(err, "delete course progress")
	}
	_, err = r.db.Collection(usersCollection).UpdateMany(ctx,
		bson.M{"subscription": id},
		bson.M{"$pull": bson.M{"subscription": id}},
	)
	if err != nil {
		return nil, mongoErr(err, "pull course subscriptions")
	}
	return lectures, nil
}

func (r *mongoCourses) Count(ctx context.Context) (int64, error) {
	n, err := r.col().CountDocuments(ctx, bson.M{})
	return n, mongoErr(err, "count courses")
}

type mongoLectures struct {
	col      *mongo.Collection
	progress *mongo.Collection
}

func (r *mongoLectures) Create(ctx context.Context, lecture *models.Lecture) error {
	if lecture.ID == "" {
		lecture.ID = models.NewID()
	}
	lecture.CreatedAt = now()
	_, err := r.col.InsertOne(ctx, lecture)
	return mongoErr(err, "create lecture")
}

func (r *mongoLectures) FindByID(ctx context.Context, id string) (*models.Lecture, error) {
	var lecture models.Lecture
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&lecture); err != nil {
		return nil, mongoErr(err, "find lecture")
	}
	return &lecture, nil
}

func (r *mongoLectures) ListByCourse(ctx context.Context, courseID string) ([]models.Lecture, error) {
	cur, err := r.col.Find(ctx, bson.M{"course": courseID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, mongoErr(err, "list lectures")
	}
	lectures := []models.Lecture{}
	if err := cur.All(ctx, &lectures); err != nil {
		return nil, mongoErr(err, "decode lectures")
	}
	return lectures, nil
}

func (r *mongoLectures) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mongoErr(err, "delete lecture")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	_, err = r.progress.UpdateMany(ctx,
		bson.M{"completedLectures": id},
		bson.M{"$pull": bson.M{"completedLectures": id}},
	)
	return mongoErr(err, "pull completed lecture")
}

func (r *mongoLectures) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"course": courseID})
	return n, mongoErr(err, "count course lectures")
}

func (r *mongoLectures) Count(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	return n, mongoErr(err, "count lectures")
}
