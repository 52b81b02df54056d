package domain

import "time"

// PlantPost is a user's photo post. The fairy workflow reads it but never
// mutates it.
type PlantPost struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	UserID      string    `gorm:"type:text;not null;index:idx_plant_posts_user" json:"user_id"`
	Title       string    `gorm:"type:text;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	ImageURL    string    `gorm:"type:text" json:"image_url"`
	PlantType   string    `gorm:"type:text" json:"plant_type"`
	Location    string    `gorm:"type:text" json:"location"`
	CreatedAt   time.Time `gorm:"index:idx_plant_posts_created" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Author *Profile `gorm:"foreignKey:UserID" json:"author,omitempty"`
}

// TableName returns the database table name for PlantPost.
func (PlantPost) TableName() string {
	return "plant_posts"
}

// PostPatch carries optional field updates for a post.
type PostPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	PlantType   *string `json:"plant_type"`
	Location    *string `json:"location"`
}

// Updates returns the non-nil fields keyed by column name.
func (p PostPatch) Updates() map[string]interface{} {
	updates := make(map[string]interface{})
	if p.Title != nil {
		updates["title"] = *p.Title
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.ImageURL != nil {
		updates["image_url"] = *p.ImageURL
	}
	if p.PlantType != nil {
		updates["plant_type"] = *p.PlantType
	}
	if p.Location != nil {
		updates["location"] = *p.Location
	}
	return updates
}
