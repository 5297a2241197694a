package dto

import (
	"time"

	domainuser "hotelier/internal/domain/user"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type UserCollection struct {
	Items []User `json:"items"`
}

type UserSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AuthToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

func MapUser(u *domainuser.User) User {
	return User{ID: string(u.ID), Email: u.Email, Name: u.Name, Role: string(u.Role), CreatedAt: u.CreatedAt}
}

func MapUsers(users []*domainuser.User) UserCollection {
	items := make([]User, 0, len(users))
	for _, u := range users {
		items = append(items, MapUser(u))
	}
	return UserCollection{Items: items}
}

func MapUserSnapshot(u *domainuser.User) *UserSnapshot {
	if u == nil {
		return nil
	}
	return &UserSnapshot{ID: string(u.ID), Name: u.Name, Email: u.Email}
}
