package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Role is the capability class carried by an identity token.
type Role string

const (
	RoleClient   Role = "client"
	RoleSupplier Role = "supplier"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleSupplier, RoleAdmin:
		return true
	}
	return false
}

// Identity is what the authentication collaborator tells us about a caller.
type Identity struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// Client is the buyer profile ('clients' table), one per user.
type Client struct {
	ID     int64  `json:"id" db:"id"`
	UserID int64  `json:"userId" db:"user_id"`
	Email  string `json:"email" db:"email"`
}

// Supplier is the seller profile ('suppliers' table), one per user.
type Supplier struct {
	ID              int64  `json:"id" db:"id"`
	UserID          int64  `json:"userId" db:"user_id"`
	Name            string `json:"name" db:"name"`
	AcceptingOrders bool   `json:"acceptingOrders" db:"accepting_orders"`
}

// Contact is a client's delivery address ('contacts' table).
type Contact struct {
	ID          int64  `json:"id" db:"id"`
	ClientID    int64  `json:"clientId" db:"client_id"`
	FirstName   string `json:"firstName" db:"first_name" binding:"required,max=50"`
	LastName    string `json:"lastName" db:"last_name" binding:"required,max=50"`
	Patronymic  string `json:"patronymic" db:"patronymic" binding:"max=50"`
	Email       string `json:"email" db:"email" binding:"required,email,max=254"`
	PhoneNumber string `json:"phoneNumber" db:"phone_number" binding:"required,max=20"`
	City        string `json:"city" db:"city" binding:"required,max=50"`
	Street      string `json:"street" db:"street" binding:"required,max=100"`
	House       string `json:"house" db:"house" binding:"max=15"`
	Building    string `json:"building" db:"building" binding:"max=15"`
	Structure   string `json:"structure" db:"structure" binding:"max=15"`
	Apartment   string `json:"apartment" db:"apartment" binding:"max=15"`
}

// Fingerprint identifies the address by its full field tuple, ignoring case
// and surrounding whitespace. Two contacts of one client may not share it.
func (c *Contact) Fingerprint() string {
	fields := []string{
		c.FirstName, c.LastName, c.Patronymic, c.Email, c.PhoneNumber,
		c.City, c.Street, c.House, c.Building, c.Structure, c.Apartment,
	}
	for i, f := range fields {
		fields[i] = strings.ToLower(strings.TrimSpace(f))
	}
	sum := sha256.Sum256([]byte(strings.Join(fields, "\x1f")))
	return hex.EncodeToString(sum[:])
}
