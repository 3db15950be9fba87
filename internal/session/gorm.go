package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/pineapple_admin/internal/models"
)

type Entry struct {
	SessionID string    `gorm:"primaryKey;size:64"`
	Key       string    `gorm:"primaryKey;size:16;column:entry_key"`
	Value     string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Entry) TableName() string { return "session_entries" }

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Entry{})
}

type GormStore struct {
	DB     *gorm.DB
	Sealer *Sealer
}

func (s *GormStore) Save(ctx context.Context, sid string, sess Session) error {
	token, err := seal(s.Sealer, sess.Token)
	if err != nil {
		return fmt.Errorf("seal token: %w", err)
	}
	user, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	now := time.Now().UTC()
	entries := []Entry{
		{SessionID: sid, Key: KeyToken, Value: token, UpdatedAt: now},
		{SessionID: sid, Key: KeyUser, Value: string(user), UpdatedAt: now},
	}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entries).Error
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Clear drops both entries in one statement.
func (s *GormStore) Clear(ctx context.Context, sid string) error {
	err := s.DB.WithContext(ctx).
		Where("session_id = ? AND entry_key IN ?", sid, []string{KeyToken, KeyUser}).
		Delete(&Entry{}).Error
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *GormStore) IsActive(ctx context.Context, sid string) bool {
	token, err := s.CurrentToken(ctx, sid)
	return err == nil && token != ""
}

func (s *GormStore) CurrentToken(ctx context.Context, sid string) (string, error) {
	v, err := s.get(ctx, sid, KeyToken)
	if err != nil {
		return "", err
	}
	token, err := open(s.Sealer, v)
	if err != nil {
		return "", fmt.Errorf("open token: %w", err)
	}
	return token, nil
}

func (s *GormStore) CurrentUser(ctx context.Context, sid string) (*models.User, error) {
	v, err := s.get(ctx, sid, KeyUser)
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := json.Unmarshal([]byte(v), &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

func (s *GormStore) get(ctx context.Context, sid, key string) (string, error) {
	var e Entry
	err := s.DB.WithContext(ctx).Where("session_id = ? AND entry_key = ?", sid, key).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNoSession
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return e.Value, nil
}
