package model

// Reminder is a single scheduled notification owned by one user.
// Sent transitions false -> true exactly once, when the sweep has
// dispatched the notification; user edits never touch it.
type Reminder struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `gorm:"type:varchar(4096)" json:"description"`
	RemindDate  Date      `gorm:"index" json:"remindDate"`
	RemindTime  ClockTime `json:"remindTime"`
	Sent        bool      `gorm:"not null;default:false" json:"sent"`
	UserID      uint      `gorm:"index;not null" json:"-"`
	User        User      `json:"-"`
}

// OwnerSub returns the identity-provider subject of the owning user,
// empty when the association is not loaded. The API layer compares it
// against the caller's token subject.
func (r *Reminder) OwnerSub() string {
	return r.User.Sub
}
