package models

import "time"

// Profile is the client-writable mirror of an identity-provider account,
// keyed by the provider-issued account id. Its Email field is a display value
// and may lag the provider's authoritative email while an email change awaits
// the verification link.
type Profile struct {
	AccountID string    `bson:"_id" json:"accountId"`
	FullName  string    `bson:"fullName" json:"fullName"`
	FarmName  string    `bson:"farmName" json:"farmName"`
	Phone     string    `bson:"phone" json:"phone"`
	Email     string    `bson:"email" json:"email"`
	Verified  bool      `bson:"verified" json:"verified"`
	CreatedAt time.Time `bson:"createdAt,omitempty" json:"createdAt"`
}

// ProfileForm carries the editable profile fields submitted by the user.
type ProfileForm struct {
	FullName        string `json:"fullName" binding:"required"`
	FarmName        string `json:"farmName" binding:"required"`
	Phone           string `json:"phone" binding:"required"`
	Email           string `json:"email" binding:"required"`
	CurrentPassword string `json:"currentPassword"`
}
