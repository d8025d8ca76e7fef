package models

import "time"

// Follow is a directed follower -> followed edge. Each pair appears once.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follow_pair" json:"follower_id"`
	FollowedID uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`

	Follower User `gorm:"foreignKey:FollowerID" json:"-"`
	Followed User `gorm:"foreignKey:FollowedID" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "followers"
}
