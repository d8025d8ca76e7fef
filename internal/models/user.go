// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// SystemUsername is the reserved identity that publishes factory events into the feed.
const SystemUsername = "factory_system"

// DefaultProfileEmoji is assigned at registration.
const DefaultProfileEmoji = "😀"

// ProfileEmojis is the palette a user may pick a profile emoji from.
var ProfileEmojis = []string{
	"😀", "😎", "🤖", "👻", "🐱", "🐶", "🦊", "🐼", "🐸", "🐵",
	"🦁", "🐯", "🐨", "🐙", "🦄", "🐝", "🌵", "🌻", "🍀", "🔥",
	"⭐", "🌙", "⚡", "🎧", "🎮", "🚀", "🎨", "📚", "⚽", "🍕",
}

// IsProfileEmoji reports whether e is part of the palette.
func IsProfileEmoji(e string) bool {
	for _, candidate := range ProfileEmojis {
		if candidate == e {
			return true
		}
	}
	return false
}

// User represents a registered account.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null;size:64" json:"username"`
	Password     string    `gorm:"not null" json:"-"`
	ProfileEmoji string    `gorm:"size:16" json:"profile_emoji"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsSystem reports whether the user is the reserved factory identity.
func (u *User) IsSystem() bool {
	return u != nil && u.Username == SystemUsername
}

// UserProfile is a user with derived social counters.
type UserProfile struct {
	User
	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
	PostCount      int64 `json:"post_count"`
	IsFollowing    bool  `json:"is_following"`
}
