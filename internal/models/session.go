package models

import "time"

// ConsentSession is created when an applicant accepts the data-protection
// notice. A wizard can only be opened against an unexpired session.
type ConsentSession struct {
	ID        string    `json:"id"`
	ConsentAt time.Time `json:"consentAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *ConsentSession) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
