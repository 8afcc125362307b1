package service

import (
	"errors"
	"fmt"
	"log"

	"github.com/pvolkov/remindly/internal/model"
	"gorm.io/gorm"
)

// UserInput carries the profile fields supplied by the caller; the subject
// comes from the access token, never from the request body.
type UserInput struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	TelegramID string `json:"telegramId"`
}

// UserService implements user profile operations.
type UserService struct {
	db     *gorm.DB
	logger *log.Logger
}

// NewUserService creates a UserService.
func NewUserService(db *gorm.DB, logger *log.Logger) *UserService {
	return &UserService{db: db, logger: logger}
}

// Upsert creates or updates the user row keyed by sub.
func (s *UserService) Upsert(sub string, in UserInput) (*model.User, error) {
	var user model.User
	err := s.db.Where("sub = ?", sub).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = model.User{Sub: sub}
	case err != nil:
		return nil, fmt.Errorf("lookup user by sub: %w", err)
	}

	user.Username = in.Username
	user.Email = in.Email
	user.TelegramID = in.TelegramID

	if err := s.db.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return &user, nil
}

// Get returns the user with the given id, or ErrNotFound.
func (s *UserService) Get(id uint) (*model.User, error) {
	var user model.User
	err := s.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &user, nil
}

// Delete removes the user row. It reports false when the id is unknown.
func (s *UserService) Delete(id uint) (bool, error) {
	res := s.db.Delete(&model.User{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("delete user %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}
