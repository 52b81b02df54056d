package domain

import "time"

// Comment is a comment row on a post.
//
// PersonaPostKey is set to the post ID only for comments authored by the
// plant fairy and is NULL otherwise. Its unique index allows at most one
// fairy comment per post while leaving human comments unconstrained.
type Comment struct {
	ID             string    `gorm:"type:text;primaryKey" json:"id"`
	PostID         string    `gorm:"type:text;not null;index:idx_comments_post" json:"post_id"`
	UserID         string    `gorm:"type:text;not null;index:idx_comments_user" json:"user_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	PersonaPostKey *string   `gorm:"type:text;uniqueIndex:idx_comments_persona_post" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Author *Profile `gorm:"foreignKey:UserID" json:"author,omitempty"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string {
	return "comments"
}

// Like records that a user liked a post. A user likes a post at most once.
type Like struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	PostID    string    `gorm:"type:text;not null;uniqueIndex:idx_likes_post_user" json:"post_id"`
	UserID    string    `gorm:"type:text;not null;uniqueIndex:idx_likes_post_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Like.
func (Like) TableName() string {
	return "likes"
}
