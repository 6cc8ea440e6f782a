package chat

import (
	"context"

	"gorm.io/gorm"

	"github.com/docbot-ai/docbot/internal/common"
	"github.com/docbot-ai/docbot/internal/models"
)

// Repo is the chat session store. Every lookup filters by session_id AND
// user_id in one query, so a session owned by someone else reports
// gorm.ErrRecordNotFound exactly like a session that never existed.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, userID uint64, title string) (*models.ChatSession, error) {
	sid, err := common.NewULID()
	if err != nil {
		return nil, err
	}

	s := &models.ChatSession{
		SessionID: sid,
		UserID:    userID,
		Title:     title,
		Messages:  models.ChatMessages{},
	}
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repo) Get(ctx context.Context, sessionID string, userID uint64) (*models.ChatSession, error) {
	var s models.ChatSession
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) List(ctx context.Context, userID uint64, skip, limit int) ([]models.ChatSession, error) {
	var out []models.ChatSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the supplied fields (title and/or a full replacement message
// list) and refreshes updated_at. Last writer wins; no merge is attempted.
func (r *Repo) Update(ctx context.Context, sessionID string, userID uint64, fields map[string]any) (*models.ChatSession, error) {
	if len(fields) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	res := r.db.WithContext(ctx).Model(&models.ChatSession{}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.Get(ctx, sessionID, userID)
}

func (r *Repo) Delete(ctx context.Context, sessionID string, userID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Delete(&models.ChatSession{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repo) Count(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ChatSession{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	return n, nil
}
