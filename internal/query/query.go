// Package query builds dynamic reminder queries out of small composable
// criteria. Each criterion narrows a *gorm.DB; Apply chains them
// conjunctively, so an omitted criterion simply contributes no constraint.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pvolkov/remindly/internal/model"
	"gorm.io/gorm"
)

// ErrInvalidSortField is returned by SortBy for an unrecognized field name.
var ErrInvalidSortField = errors.New("invalid sort field")

// Criterion narrows or orders a reminder query.
type Criterion func(*gorm.DB) *gorm.DB

// Apply chains all criteria onto db.
func Apply(db *gorm.DB, criteria ...Criterion) *gorm.DB {
	for _, c := range criteria {
		db = c(db)
	}
	return db
}

// ByOwner restricts results to reminders owned by userID.
func ByOwner(userID uint) Criterion {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

// DateBefore keeps reminders dated at or before d.
func DateBefore(d model.Date) Criterion {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("remind_date <= ?", d)
	}
}

// DateAfter keeps reminders dated at or after d.
func DateAfter(d model.Date) Criterion {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("remind_date >= ?", d)
	}
}

// TimeBefore keeps reminders timed at or before t.
func TimeBefore(t model.ClockTime) Criterion {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("remind_time <= ?", t)
	}
}

// TimeAfter keeps reminders timed at or after t.
func TimeAfter(t model.ClockTime) Criterion {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("remind_time >= ?", t)
	}
}

// NameContains matches the name by case-insensitive substring.
func NameContains(fragment string) Criterion {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(fragment)+"%")
	}
}

// DescriptionContains matches the description by case-insensitive substring.
func DescriptionContains(fragment string) Criterion {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER(description) LIKE ?", "%"+strings.ToLower(fragment)+"%")
	}
}

// ExactDate matches the remind date exactly.
func ExactDate(d model.Date) Criterion {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("remind_date = ?", d)
	}
}

// ExactTime matches the remind time exactly.
func ExactTime(t model.ClockTime) Criterion {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("remind_time = ?", t)
	}
}

// SortBy orders ascending by one of "name", "remindDate" or "remindTime".
// Any other field name is ErrInvalidSortField, never a silent no-op.
func SortBy(field string) (Criterion, error) {
	var column string
	switch field {
	case "name":
		column = "name"
	case "remindDate":
		column = "remind_date"
	case "remindTime":
		column = "remind_time"
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSortField, field)
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(column + " ASC")
	}, nil
}
