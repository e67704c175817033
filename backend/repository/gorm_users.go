package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"elearning/backend/models"
)

type gormUsers struct {
	db *gorm.DB
}

func (r *gormUsers) Create(ctx context.Context, user *models.User) error {
	return gormErr(r.db.WithContext(ctx).Create(user).Error, "create user")
}

func (r *gormUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *gormUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *gormUsers) findOne(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, gormErr(err, "find user")
	}
	subs, err := r.subscriptions(ctx, []string{user.ID})
	if err != nil {
		return nil, err
	}
	user.Subscription = subs[user.ID]
	if user.Subscription == nil {
		user.Subscription = []string{}
	}
	return &user, nil
}

func (r *gormUsers) ListExcept(ctx context.Context, id string) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id <> ?", id).Order("created_at").Find(&users).Error; err != nil {
		return nil, gormErr(err, "list users")
	}
	ids := make([]string, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	subs, err := r.subscriptions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Subscription = subs[users[i].ID]
		if users[i].Subscription == nil {
			users[i].Subscription = []string{}
		}
	}
	return users, nil
}

func (r *gormUsers) subscriptions(ctx context.Context, userIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []models.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, gormErr(err, "load subscriptions")
	}
	for _, row := range rows {
		out[row.UserID] = append(out[row.UserID], row.CourseID)
	}
	return out, nil
}

func (r *gormUsers) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.update(ctx, id, "password", passwordHash)
}

func (r *gormUsers) UpdateRole(ctx context.Context, id string, role models.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	return r.update(ctx, id, "role", role)
}

func (r *gormUsers) update(ctx context.Context, id, column string, value interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return gormErr(res.Error, "update user "+column)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormUsers) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, gormErr(err, "count users")
}

func (r *gormUsers) AddSubscription(ctx context.Context, userID, courseID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Subscription{UserID: userID, CourseID: courseID})
	if res.Error != nil {
		return false, gormErr(res.Error, "add subscription")
	}
	return res.RowsAffected == 1, nil
}
