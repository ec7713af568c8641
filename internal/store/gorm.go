package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/elliewren/caption-gallery/backend/internal/models"
)

// Store is the gorm-backed implementation of every store interface.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListAll(ctx context.Context) ([]models.Caption, error) {
	var captions []models.Caption
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&captions).Error; err != nil {
		return nil, fmt.Errorf("list captions: %w", err)
	}

	// Empty table returns an empty array, not null
	if captions == nil {
		captions = []models.Caption{}
	}
	return captions, nil
}

func (s *Store) CaptionByID(ctx context.Context, id string) (*models.Caption, error) {
	var caption models.Caption
	if err := s.db.WithContext(ctx).First(&caption, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find caption: %w", err)
	}
	return &caption, nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.Vote, error) {
	var votes []models.Vote
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&votes).Error; err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	return votes, nil
}

func (s *Store) Upsert(ctx context.Context, vote *models.Vote) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "caption_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"direction", "updated_at"}),
	}).Create(vote).Error
	if err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, userID, captionID string) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND caption_id = ?", userID, captionID).
		Delete(&models.Vote{}).Error
	if err != nil {
		return fmt.Errorf("delete vote: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *Store) FindOrCreateFromGoogle(ctx context.Context, googleID, email, name, avatarURL string) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	result := db.Where("google_id = ? OR email = ?", googleID, email).First(&user)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		user = models.User{
			ID:        uuid.NewString(),
			Email:     email,
			Name:      name,
			AvatarURL: avatarURL,
			GoogleID:  googleID,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		return &user, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("find user: %w", result.Error)
	}

	// Existing user matched by email - link the Google subject if unset.
	changed := false
	if user.GoogleID == "" {
		user.GoogleID = googleID
		changed = true
	}
	if user.AvatarURL == "" && avatarURL != "" {
		user.AvatarURL = avatarURL
		changed = true
	}
	if changed {
		if err := db.Save(&user).Error; err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}

	return &user, nil
}
