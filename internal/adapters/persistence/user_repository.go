package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/coldroute-go/internal/application/auth"
	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
)

// UserRepositoryGORM implements auth.UserRepository using GORM
type UserRepositoryGORM struct {
	db *gorm.DB
}

// NewUserRepository creates a GORM-based user repository
func NewUserRepository(db *gorm.DB) *UserRepositoryGORM {
	return &UserRepositoryGORM{db: db}
}

func userFromModel(m *UserModel) (*auth.User, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user id: %w", err)
	}
	return &auth.User{
		ID:             id,
		Username:       m.Username,
		Email:          m.Email,
		HashedPassword: m.HashedPassword,
		FullName:       m.FullName,
		Disabled:       m.Disabled,
		IsSuperuser:    m.IsSuperuser,
		CreatedAt:      m.CreatedAt,
	}, nil
}

// FindByUsername retrieves a user by unique username
func (r *UserRepositoryGORM) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	var model UserModel
	result := r.db.WithContext(ctx).Where("username = ?", username).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("user", username)
		}
		return nil, fmt.Errorf("failed to find user: %w", result.Error)
	}
	return userFromModel(&model)
}

// Save inserts or updates a user
func (r *UserRepositoryGORM) Save(ctx context.Context, user *auth.User) error {
	model := &UserModel{
		ID:             user.ID.String(),
		Username:       user.Username,
		Email:          user.Email,
		HashedPassword: user.HashedPassword,
		FullName:       user.FullName,
		Disabled:       user.Disabled,
		IsSuperuser:    user.IsSuperuser,
		CreatedAt:      user.CreatedAt,
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return shared.NewConflictError("username or email already registered: " + user.Username)
		}
		return fmt.Errorf("failed to save user: %w", result.Error)
	}
	return nil
}
