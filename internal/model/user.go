package model

// User is an account row created or updated on first authenticated
// contact, keyed by the identity provider's subject string.
type User struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Sub        string `gorm:"uniqueIndex;not null" json:"sub"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	TelegramID string `json:"telegramId"`
}
