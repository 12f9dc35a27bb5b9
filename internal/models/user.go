// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package models

import "time"

// UserStatus controls whether a user can sign in and appear in discovery.
type UserStatus string

const (
	UserStatusActive UserStatus = "active"
	UserStatusBanned UserStatus = "banned"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusBanned
}

// BirthDateLayout is the wire and storage format of User.BirthDate.
const BirthDateLayout = "2006-01-02"

// User is an account plus its dating profile. Profile fields are empty until
// onboarding completes.
type User struct {
	ID           string     `json:"id"`
	PhoneNumber  string     `json:"phoneNumber,omitempty"`
	Email        string     `json:"email,omitempty"`
	GoogleSub    string     `json:"-"`
	Name         string     `json:"name"`
	BirthDate    string     `json:"birthDate,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	InterestedIn string     `json:"interestedIn,omitempty"`
	Bio          string     `json:"bio,omitempty"`
	Photos       []string   `json:"photos"`
	Interests    []string   `json:"interests"`
	Onboarded    bool       `json:"onboarded"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ProfileUpdate is the onboarding payload applied by PUT /api/profile.
type ProfileUpdate struct {
	Name         string   `json:"name" validate:"required,min=1,max=60"`
	BirthDate    string   `json:"birthDate" validate:"required,adult"`
	Gender       string   `json:"gender" validate:"required,oneof=woman man nonbinary"`
	InterestedIn string   `json:"interestedIn" validate:"required,oneof=women men everyone"`
	Bio          string   `json:"bio" validate:"max=500"`
	Photos       []string `json:"photos" validate:"max=6,dive,url"`
	Interests    []string `json:"interests" validate:"max=10,dive,min=1,max=30"`
}

// Apply copies the update onto u and marks onboarding complete.
func (p *ProfileUpdate) Apply(u *User, now time.Time) {
	u.Name = p.Name
	u.BirthDate = p.BirthDate
	u.Gender = p.Gender
	u.InterestedIn = p.InterestedIn
	u.Bio = p.Bio
	u.Photos = append([]string(nil), p.Photos...)
	u.Interests = append([]string(nil), p.Interests...)
	u.Onboarded = true
	u.UpdatedAt = now
}

// PublicProfile is what other users see.
type PublicProfile struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Age       int      `json:"age,omitempty"`
	Gender    string   `json:"gender,omitempty"`
	Bio       string   `json:"bio,omitempty"`
	Photos    []string `json:"photos"`
	Interests []string `json:"interests"`
}

// Public projects u for other users. Age is computed at now.
func (u *User) Public(now time.Time) PublicProfile {
	photos := u.Photos
	if photos == nil {
		photos = []string{}
	}
	interests := u.Interests
	if interests == nil {
		interests = []string{}
	}
	return PublicProfile{
		ID:        u.ID,
		Name:      u.Name,
		Age:       Age(u.BirthDate, now),
		Gender:    u.Gender,
		Bio:       u.Bio,
		Photos:    photos,
		Interests: interests,
	}
}

// Age returns whole years between birthDate and now, or 0 when birthDate does
// not parse.
func Age(birthDate string, now time.Time) int {
	born, err := time.Parse(BirthDateLayout, birthDate)
	if err != nil {
		return 0
	}
	years := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		years--
	}
	return years
}
