// Package model defines the data structures used throughout the application.
package model

import "time"

// User is one caller of the review service, keyed by the identity provider's
// subject.
//
// WHY A SEPARATE ID AND SUBJECT?
// Subject belongs to the identity provider. ID is ours (an xid assigned by
// storage), so nothing downstream is tied to a third party's numbering. The
// UNIQUE constraint on external_subject guarantees one User per subject.
//
// Reviews is the full history, embedded in the user record in the order the
// reviews were created. It may be nil for records written before the column
// existed; HistoryService normalizes that on append.
type User struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Reviews     []Review  `json:"reviews"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
