// Package service holds the application operations behind the REST
// surface: reminder CRUD with pagination, the sort/filter/search read
// paths, and user upsert keyed by the identity provider subject.
package service

import (
	"errors"
	"fmt"
	"log"

	"github.com/pvolkov/remindly/internal/model"
	"github.com/pvolkov/remindly/internal/query"
	"gorm.io/gorm"
)

var (
	// ErrNotFound means the requested id has no matching record.
	ErrNotFound = errors.New("reminder not found")
	// ErrUserNotFound means the caller's subject has no user row. This is
	// a hard failure, never swallowed: every owner-scoped operation needs
	// the row to resolve the scope.
	ErrUserNotFound = errors.New("user not found")
)

// CreateReminderInput carries the fields of a new reminder.
type CreateReminderInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	RemindDate  model.Date      `json:"remindDate"`
	RemindTime  model.ClockTime `json:"remindTime"`
}

// UpdateReminderInput carries a partial update; nil fields stay untouched.
// The sent flag is deliberately absent: edits never reset it.
type UpdateReminderInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	RemindDate  *model.Date      `json:"remindDate"`
	RemindTime  *model.ClockTime `json:"remindTime"`
}

// FilterParams are the optional date/time bounds, AND-combined. All
// bounds are inclusive.
type FilterParams struct {
	BeforeDate *model.Date
	AfterDate  *model.Date
	BeforeTime *model.ClockTime
	AfterTime  *model.ClockTime
}

// SearchParams are the optional search terms, AND-combined. Name and
// description match case-insensitive substrings, date and time exactly.
type SearchParams struct {
	Name        string
	Description string
	RemindDate  *model.Date
	RemindTime  *model.ClockTime
}

// Page is one page of reminders plus pagination totals.
type Page struct {
	Content       []model.Reminder `json:"content"`
	Page          int              `json:"page"`
	Size          int              `json:"size"`
	TotalElements int64            `json:"totalElements"`
	TotalPages    int              `json:"totalPages"`
}

// ReminderService implements the reminder operations.
type ReminderService struct {
	db     *gorm.DB
	logger *log.Logger
}

// NewReminderService creates a ReminderService.
func NewReminderService(db *gorm.DB, logger *log.Logger) *ReminderService {
	return &ReminderService{db: db, logger: logger}
}

// Create stores a new reminder owned by the user with the given subject.
func (s *ReminderService) Create(sub string, in CreateReminderInput) (*model.Reminder, error) {
	owner, err := s.ownerBySub(sub)
	if err != nil {
		return nil, err
	}

	reminder := model.Reminder{
		Name:        in.Name,
		Description: in.Description,
		RemindDate:  in.RemindDate,
		RemindTime:  in.RemindTime,
		UserID:      owner.ID,
	}
	if err := s.db.Create(&reminder).Error; err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	reminder.User = *owner
	return &reminder, nil
}

// Get returns the reminder with its owner loaded, or ErrNotFound.
func (s *ReminderService) Get(id uint) (*model.Reminder, error) {
	var reminder model.Reminder
	err := s.db.Preload("User").First(&reminder, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reminder %d: %w", id, err)
	}
	return &reminder, nil
}

// List returns all reminders owned by the user with the given subject.
func (s *ReminderService) List(sub string) ([]model.Reminder, error) {
	owner, err := s.ownerBySub(sub)
	if err != nil {
		return nil, err
	}
	return s.find(query.ByOwner(owner.ID))
}

// Paged returns one page of the caller's reminders, ordered by id.
func (s *ReminderService) Paged(sub string, page, size int) (*Page, error) {
	owner, err := s.ownerBySub(sub)
	if err != nil {
		return nil, err
	}
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}

	scoped := query.Apply(s.db.Model(&model.Reminder{}), query.ByOwner(owner.ID))
	var total int64
	if err := scoped.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count reminders: %w", err)
	}

	var reminders []model.Reminder
	err = query.Apply(s.db, query.ByOwner(owner.ID)).
		Order("id ASC").
		Offset(page * size).
		Limit(size).
		Find(&reminders).Error
	if err != nil {
		return nil, fmt.Errorf("page reminders: %w", err)
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return &Page{
		Content:       reminders,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}

// Update applies a partial edit to the reminder. The sent flag is never
// written here, so an edit cannot reset an already-dispatched reminder.
func (s *ReminderService) Update(id uint, in UpdateReminderInput) (*model.Reminder, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.RemindDate != nil {
		updates["remind_date"] = *in.RemindDate
	}
	if in.RemindTime != nil {
		updates["remind_time"] = *in.RemindTime
	}

	if len(updates) > 0 {
		err := s.db.Model(&model.Reminder{}).Where("id = ?", id).Updates(updates).Error
		if err != nil {
			return nil, fmt.Errorf("update reminder %d: %w", id, err)
		}
	}
	return s.Get(id)
}

// Delete removes the reminder. It reports false when the id is unknown.
func (s *ReminderService) Delete(id uint) (bool, error) {
	res := s.db.Delete(&model.Reminder{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("delete reminder %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Sort returns the caller's reminders ordered ascending by the named
// field. An unrecognized field is query.ErrInvalidSortField.
func (s *ReminderService) Sort(sub, field string) ([]model.Reminder, error) {
	owner, err := s.ownerBySub(sub)
	if err != nil {
		return nil, err
	}
	sortCrit, err := query.SortBy(field)
	if err != nil {
		return nil, err
	}
	return s.find(query.ByOwner(owner.ID), sortCrit)
}

// Filter returns the caller's reminders within the supplied date/time
// bounds. Omitted bounds contribute no constraint.
func (s *ReminderService) Filter(sub string, p FilterParams) ([]model.Reminder, error) {
	owner, err := s.ownerBySub(sub)
	if err != nil {
		return nil, err
	}

	criteria := []query.Criterion{query.ByOwner(owner.ID)}
	if p.BeforeDate != nil {
		criteria = append(criteria, query.DateBefore(*p.BeforeDate))
	}
	if p.AfterDate != nil {
		criteria = append(criteria, query.DateAfter(*p.AfterDate))
	}
	if p.BeforeTime != nil {
		criteria = append(criteria, query.TimeBefore(*p.BeforeTime))
	}
	if p.AfterTime != nil {
		criteria = append(criteria, query.TimeAfter(*p.AfterTime))
	}
	return s.find(criteria...)
}

// Search returns the caller's reminders matching the supplied terms.
// Omitted terms contribute no constraint.
func (s *ReminderService) Search(sub string, p SearchParams) ([]model.Reminder, error) {
	owner, err := s.ownerBySub(sub)
	if err != nil {
		return nil, err
	}

	criteria := []query.Criterion{query.ByOwner(owner.ID)}
	if p.Name != "" {
		criteria = append(criteria, query.NameContains(p.Name))
	}
	if p.Description != "" {
		criteria = append(criteria, query.DescriptionContains(p.Description))
	}
	if p.RemindDate != nil {
		criteria = append(criteria, query.ExactDate(*p.RemindDate))
	}
	if p.RemindTime != nil {
		criteria = append(criteria, query.ExactTime(*p.RemindTime))
	}
	return s.find(criteria...)
}

func (s *ReminderService) find(criteria ...query.Criterion) ([]model.Reminder, error) {
	var reminders []model.Reminder
	if err := query.Apply(s.db, criteria...).Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	return reminders, nil
}

func (s *ReminderService) ownerBySub(sub string) (*model.User, error) {
	var user model.User
	err := s.db.Where("sub = ?", sub).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: sub=%s", ErrUserNotFound, sub)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user by sub: %w", err)
	}
	return &user, nil
}
