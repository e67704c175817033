package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"elearning/backend/models"
)

type mongoUsers struct {
	col *mongo.Collection
}

func (r *mongoUsers) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = models.NewID()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.Subscription == nil {
		user.Subscription = []string{}
	}
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt
	_, err := r.col.InsertOne(ctx, user)
	return mongoErr(err, "create user")
}

func (r *mongoUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUsers) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, mongoErr(err, "find user")
	}
	if user.Subscription == nil {
		user.Subscription = []string{}
	}
	return &user, nil
}

func (r *mongoUsers) ListExcept(ctx context.Context, id string) ([]models.User, error) {
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$ne": id}}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, mongoErr(err, "list users")
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, mongoErr(err, "decode users")
	}
	return users, nil
}

func (r *mongoUsers) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.set(ctx, id, bson.M{"password": passwordHash})
}

func (r *mongoUsers) UpdateRole(ctx context.Context, id string, role models.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	return r.set(ctx, id, bson.M{"role": role})
}

func (r *mongoUsers) set(ctx context.Context, id string, fields bson.M) error {
	fields["updatedAt"] = now()
	res, err := r.col.UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return mongoErr(err, "update user")
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUsers) Count(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	return n, mongoErr(err, "count users")
}

func (r *mongoUsers) AddSubscription(ctx context.Context, userID, courseID string) (bool, error) {
	filter := bson.M{"_id": userID, "subscription": bson.M{"$ne": courseID}}
	update := bson.M{
		"$push": bson.M{"subscription": courseID},
		"$set":  bson.M{"updatedAt": now()},
	}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, mongoErr(err, "add subscription")
	}
	if res.ModifiedCount == 1 {
		return true, nil
	}
	if _, err := r.FindByID(ctx, userID); err != nil {
		return false, err
	}
	return false, nil
}
