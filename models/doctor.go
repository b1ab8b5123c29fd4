package models

import "time"

// Doctor is a provider patients can book appointments with.
type Doctor struct {
	ID             string               `bson:"id" json:"id"`
	Name           string               `bson:"name" json:"name"`
	Email          string               `bson:"email" json:"email"`
	Specialization string               `bson:"specialization" json:"specialization"`
	CalendarID     string               `bson:"calendarId,omitempty" json:"calendarId,omitempty"`
	Calendar       *CalendarCredentials `bson:"calendar,omitempty" json:"-"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// CalendarCredentials holds the OAuth tokens for a doctor's external calendar.
type CalendarCredentials struct {
	AccessToken  string    `bson:"accessToken" json:"-"`
	RefreshToken string    `bson:"refreshToken" json:"-"`
	TokenType    string    `bson:"tokenType,omitempty" json:"-"`
	Expiry       time.Time `bson:"expiry" json:"expiry"`
}

// HasCalendar reports whether the doctor has a connected external calendar.
func (d *Doctor) HasCalendar() bool {
	return d.CalendarID != "" && d.Calendar != nil && d.Calendar.RefreshToken != ""
}
