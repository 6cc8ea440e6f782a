package users

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/docbot-ai/docbot/internal/models"
)

// Repo is the user directory. Absence is reported as gorm.ErrRecordNotFound;
// callers translate at the boundary.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Create inserts a new user. The unique index on email makes duplicate
// registration fail with gorm.ErrDuplicatedKey even when two requests race
// past the application-level check.
func (r *Repo) Create(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *Repo) GetByID(ctx context.Context, id uint64) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "verification_token = ?", token).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Update applies only the supplied fields and refreshes updated_at.
func (r *Repo) Update(ctx context.Context, id uint64, fields map[string]any) (*models.User, error) {
	if len(fields) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *Repo) Delete(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repo) List(ctx context.Context, skip, limit int) ([]models.User, error) {
	var out []models.User
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *Repo) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IncrementLoginAttempts bumps the lockout counter with a single UPDATE so
// concurrent failed logins never lose an increment.
func (r *Repo) IncrementLoginAttempts(ctx context.Context, email string) (int, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		UpdateColumn("login_attempts", gorm.Expr("login_attempts + ?", 1))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var attempts int
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("login_attempts").
		Where("email = ?", email).
		Scan(&attempts).Error
	if err != nil {
		return 0, err
	}
	return attempts, nil
}

func (r *Repo) ResetLoginAttempts(ctx context.Context, email string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		UpdateColumn("login_attempts", 0)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RecordSuccessfulLogin sets last_login and clears the lockout counter in one
// statement.
func (r *Repo) RecordSuccessfulLogin(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"last_login":     time.Now(),
			"login_attempts": 0,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkVerified flips is_verified and consumes the verification token. The
// is_verified guard in the WHERE clause makes a second call a no-op that
// reports false.
func (r *Repo) MarkVerified(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_verified = ?", id, false).
		Updates(map[string]any{
			"is_verified":        true,
			"verification_token": nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
