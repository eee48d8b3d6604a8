package entity

import (
	"time"
)

type User struct {
	ID           string `json:"id" firestore:"id"`
	FullName     string `json:"full_name" firestore:"fullName"`
	Email        string `json:"email" firestore:"email"`
	PasswordHash string `json:"-" firestore:"passwordHash"`
	Phone        string `json:"phone" firestore:"phone"`
	Location     string `json:"location" firestore:"location"`
	AvatarURL    string `json:"avatar_url,omitempty" firestore:"avatarURL,omitempty"`
	Bio          string `json:"bio,omitempty" firestore:"bio,omitempty"`

	IsBuyer     bool    `json:"is_buyer" firestore:"isBuyer"`
	IsSeller    bool    `json:"is_seller" firestore:"isSeller"`
	Rating      float64 `json:"rating" firestore:"rating"`
	ReviewCount int     `json:"review_count" firestore:"reviewCount"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// UserSummary is the public projection of a user shown next to listings and
// conversations.
type UserSummary struct {
	ID          string  `json:"id"`
	FullName    string  `json:"full_name"`
	AvatarURL   string  `json:"avatar_url,omitempty"`
	Location    string  `json:"location,omitempty"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

type PublicProfile struct {
	UserSummary
	Bio       string    `json:"bio,omitempty"`
	IsSeller  bool      `json:"is_seller"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:          u.ID,
		FullName:    u.FullName,
		AvatarURL:   u.AvatarURL,
		Location:    u.Location,
		Rating:      u.Rating,
		ReviewCount: u.ReviewCount,
	}
}

func (u *User) PublicProfile() *PublicProfile {
	return &PublicProfile{
		UserSummary: *u.Summary(),
		Bio:         u.Bio,
		IsSeller:    u.IsSeller,
		CreatedAt:   u.CreatedAt,
	}
}
