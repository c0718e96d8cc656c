package db

import (
	"strings"
	"time"
)

// Post 定义了博客文章模型，对应 Blogs 集合。
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `json:"content"`
	ImageURL  *string   `gorm:"column:image_url" json:"image_url"`
	Edited    bool      `gorm:"not null;default:false" json:"edited"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the collection name used by the public site and the admin panel.
func (Post) TableName() string {
	return "blogs"
}

// Image returns the image URL or an empty string when the post has none.
func (p Post) Image() string {
	if p.ImageURL == nil {
		return ""
	}
	return strings.TrimSpace(*p.ImageURL)
}

// HasImage reports whether a non-empty image URL is set.
func (p Post) HasImage() bool {
	return p.Image() != ""
}

// ImageURLPtr converts an optional URL into the nullable column value.
func ImageURLPtr(url string) *string {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
