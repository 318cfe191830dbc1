package storage

import "time"

// Zone represents a themed virtual coworking room.
type Zone struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	YouTubeURL  string `json:"youtubeUrl"`
	ActiveUsers int    `json:"activeUsers"`
}

// NewZone holds the attributes needed to create a zone.
type NewZone struct {
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`
	Icon        string `json:"icon" mapstructure:"icon"`
	Color       string `json:"color" mapstructure:"color"`
	YouTubeURL  string `json:"youtubeUrl" mapstructure:"youtube_url"`
}

// User represents someone who has checked in at least once.
type User struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Email  *string `json:"email"`
	Avatar *string `json:"avatar"`
}

// NewUser holds the attributes needed to create a user.
// Empty Email and Avatar are stored as absent.
type NewUser struct {
	Name   string
	Email  string
	Avatar string
}

// Session represents one user's presence in one zone.
type Session struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"userId"`
	ZoneID       int64      `json:"zoneId"`
	CheckedInAt  time.Time  `json:"checkedInAt"`
	CheckedOutAt *time.Time `json:"checkedOutAt"`
	Duration     string     `json:"duration"`
	IsActive     bool       `json:"isActive"`
}

// optional converts an empty string to nil.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Build returns the User record for u with the given ID.
func (u NewUser) Build(id int64) User {
	return User{
		ID:     id,
		Name:   u.Name,
		Email:  optional(u.Email),
		Avatar: optional(u.Avatar),
	}
}

// Build returns the Zone record for z with the given ID and no active users.
func (z NewZone) Build(id int64) Zone {
	return Zone{
		ID:          id,
		Name:        z.Name,
		Description: z.Description,
		Icon:        z.Icon,
		Color:       z.Color,
		YouTubeURL:  z.YouTubeURL,
	}
}
