package domain

import "time"

// Profile is a user identity. The plant fairy persona is an ordinary profile
// row with a fixed, well-known ID.
type Profile struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	Username  string    `gorm:"type:text;uniqueIndex:idx_profiles_username" json:"username"`
	FullName  string    `gorm:"type:text" json:"full_name"`
	AvatarURL string    `gorm:"type:text" json:"avatar_url"`
	Bio       string    `gorm:"type:text" json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string {
	return "profiles"
}
