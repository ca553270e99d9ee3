package domain

import "time"

// Address is a postal address embedded into customer profiles.
type Address struct {
	Line1              string `gorm:"type:text" json:"line1"`
	Line2              string `gorm:"type:text" json:"line2"`
	DependentLocality  string `gorm:"type:text" json:"dependent_locality"`
	Locality           string `gorm:"type:text" json:"locality"`
	AdministrativeArea string `gorm:"type:text" json:"administrative_area"`
	PostalCode         string `gorm:"type:text" json:"postal_code"`
	CountryCode        string `gorm:"type:text" json:"country_code"`
}

// CustomerProfile is a storefront customer profile. Orders reference two of
// them, one for billing and one for shipping.
type CustomerProfile struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Email      string    `gorm:"type:text" json:"email"`
	GivenName  string    `gorm:"type:text" json:"given_name"`
	FamilyName string    `gorm:"type:text" json:"family_name"`
	Company    string    `gorm:"type:text" json:"company"`
	Address    Address   `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for CustomerProfile.
func (CustomerProfile) TableName() string {
	return "customer_profiles"
}
