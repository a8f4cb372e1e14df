package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// UserService handles user listings, account removal and the follow
// graph.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// List returns a page of users ordered by username, plus the total count.
func (s *UserService) List(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := s.db.WithContext(ctx).Order("username")
	if page > 0 && limit > 0 {
		q = q.Offset((page - 1) * limit).Limit(limit)
	}

	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Delete removes the account and explicitly cleans up everything it
// owns: recipes (with their join rows), favorites, cart entries and
// follows in both directions.
func (s *UserService) Delete(ctx context.Context, userID uuid.UUID) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipes []models.Recipe
		if err := tx.Where("author_id = ?", userID).Find(&recipes).Error; err != nil {
			return err
		}
		for i := range recipes {
			if err := tx.Where("recipe_id = ?", recipes[i].ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&recipes[i]).Association("Tags").Clear(); err != nil {
				return err
			}
			if err := tx.Where("recipe_id = ?", recipes[i].ID).Delete(&models.Favorite{}).Error; err != nil {
				return err
			}
			if err := tx.Where("recipe_id = ?", recipes[i].ID).Delete(&models.Cart{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&recipes[i]).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Cart{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR following_id = ?", userID, userID).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}

// Subscribe creates a follow from the requester to the target. Self-
// follows and duplicates are rejected.
func (s *UserService) Subscribe(ctx context.Context, userID, targetID uuid.UUID) error {
	if userID == targetID {
		return ErrSelfFollow
	}

	if _, err := s.Get(ctx, targetID); err != nil {
		return err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND following_id = ?", userID, targetID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("already subscribed to this user: %w", ErrAlreadyExists)
	}

	// The composite unique index rejects a concurrent duplicate insert.
	follow := models.Follow{UserID: userID, FollowingID: targetID}
	return s.db.WithContext(ctx).Create(&follow).Error
}

// Unsubscribe deletes the follow row; an absent subscription is an
// explicit error.
func (s *UserService) Unsubscribe(ctx context.Context, userID, targetID uuid.UUID) error {
	if _, err := s.Get(ctx, targetID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND following_id = ?", userID, targetID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("not subscribed to this user: %w", ErrNotInRelation)
	}
	return nil
}

// Subscription is one entry of the subscriptions listing: the followed
// user enriched with recent recipes and the total recipe count.
type Subscription struct {
	User        models.User
	Recipes     []models.Recipe
	RecipeCount int64
}

// Subscriptions returns a page of the requester's follows. recipesLimit
// caps the recipes embedded per entry; zero means no cap.
func (s *UserService) Subscriptions(ctx context.Context, userID uuid.UUID, page, limit, recipesLimit int) ([]Subscription, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := s.db.WithContext(ctx).
		Preload("Following").
		Where("user_id = ?", userID).
		Order("created_at")
	if page > 0 && limit > 0 {
		q = q.Offset((page - 1) * limit).Limit(limit)
	}

	var follows []models.Follow
	if err := q.Find(&follows).Error; err != nil {
		return nil, 0, err
	}

	subs := make([]Subscription, 0, len(follows))
	for _, follow := range follows {
		rq := s.db.WithContext(ctx).
			Where("author_id = ?", follow.FollowingID).
			Order("created_at DESC")
		if recipesLimit > 0 {
			rq = rq.Limit(recipesLimit)
		}
		var recipes []models.Recipe
		if err := rq.Find(&recipes).Error; err != nil {
			return nil, 0, err
		}

		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
			Where("author_id = ?", follow.FollowingID).Count(&count).Error; err != nil {
			return nil, 0, err
		}

		subs = append(subs, Subscription{
			User:        follow.Following,
			Recipes:     recipes,
			RecipeCount: count,
		})
	}
	return subs, total, nil
}

// FollowingSet returns which of the given users the requester follows.
// Empty for the nil (anonymous) requester.
func (s *UserService) FollowingSet(ctx context.Context, userID *uuid.UUID, targetIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	following := make(map[uuid.UUID]bool)
	if userID == nil || len(targetIDs) == 0 {
		return following, nil
	}

	var follows []models.Follow
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND following_id IN ?", *userID, targetIDs).
		Find(&follows).Error; err != nil {
		return nil, err
	}
	for _, f := range follows {
		following[f.FollowingID] = true
	}
	return following, nil
}
