package models

import (
	"time"
)

// Post is a feed entry. Content is free text or a JSON structured payload.
// LikeCount and RepostCount are denormalized and kept in lockstep with the
// like and repost rows by the repository.
type Post struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	User           User      `gorm:"foreignKey:UserID" json:"user"`
	Content        string    `gorm:"type:text" json:"content"`
	IsRepost       bool      `gorm:"not null;default:false" json:"is_repost"`
	OriginalPostID *uint     `gorm:"index" json:"original_post_id"`
	LikeCount      int       `gorm:"not null;default:0" json:"like_count"`
	RepostCount    int       `gorm:"not null;default:0" json:"repost_count"`
	HasImage       bool      `gorm:"not null;default:false" json:"has_image"`
	ImagePath      string    `json:"image_path,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Original is the reposted post, when it still exists (computed)
	Original *Post `gorm:"-" json:"original,omitempty"`
	// Liked indicates whether the requesting user liked this post (computed)
	Liked bool `gorm:"-" json:"liked"`
	// Payload is the decoded structured payload, if Content carries one (computed)
	Payload *Payload `gorm:"-" json:"payload,omitempty"`
	// IsSystem marks posts published by the factory identity (computed)
	IsSystem bool `gorm:"-" json:"is_system"`
}

// Username returns the owner's username when the User relation was loaded.
func (p *Post) Username() string {
	return p.User.Username
}

// Like represents a user's like on a post.
// The combination of UserID and PostID must be unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_like_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_post_user;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeAction is the outcome of a like toggle.
type LikeAction string

const (
	LikeAdded   LikeAction = "added"
	LikeRemoved LikeAction = "removed"
)
