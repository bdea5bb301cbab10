package model

import "time"

type AttemptStatus string

const (
	AttemptSubmitted AttemptStatus = "SUBMITTED"
	AttemptSealed    AttemptStatus = "SEALED"
	AttemptFailed    AttemptStatus = "FAILED"
)

// AuthorizationAttempt records one transaction sent on behalf of a session.
type AuthorizationAttempt struct {
	Id            uint64        `gorm:"primaryKey" json:"id"`
	SessionId     string        `gorm:"index" json:"sessionId"`
	Address       string        `json:"address"`
	TransactionId string        `gorm:"uniqueIndex" json:"transactionId"`
	Cadence       string        `json:"cadence"`
	Status        AttemptStatus `json:"status"`
	Error         string        `json:"error,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func (AuthorizationAttempt) TableName() string {
	return "authorization_attempt"
}
