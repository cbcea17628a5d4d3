package model

import "time"

// Option is a row in the host's options table. A nil ExpiresAt never expires.
type Option struct {
	Name      string     `gorm:"type:varchar(191);primaryKey" json:"name"`
	Value     []byte     `gorm:"not null" json:"value"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Option) TableName() string { return "options" }

// Expired reports whether the option is past its expiry at now.
func (o *Option) Expired(now time.Time) bool {
	return o.ExpiresAt != nil && !now.Before(*o.ExpiresAt)
}
