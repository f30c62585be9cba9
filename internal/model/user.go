package model

import "time"

// Roles recognised by the API.  Admins may manage any listing, booking or
// user; regular users only their own resources.
const (
    RoleUser  = "USER"
    RoleAdmin = "ADMIN"
)

// User represents an account document stored in the `users` collection.
// Only the bcrypt hash of the password is persisted.
//
// Fields:
//  ID           – opaque document identifier.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  DisplayName  – name shown on listings and bookings.
//  Phone        – optional contact phone.
//  Role         – USER or ADMIN.
//  IsActive     – whether the account may authenticate.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           string    `json:"id"`
    Email        string    `json:"email"`
    PasswordHash string    `json:"password_hash"`
    DisplayName  string    `json:"display_name,omitempty"`
    Phone        string    `json:"phone,omitempty"`
    Role         string    `json:"role"`
    IsActive     bool      `json:"is_active"`
    CreatedAt    time.Time `json:"created_at"`
    UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken models an entry in the `refresh_tokens` collection.  The
// plain token is never stored; only its SHA-256 hash.
//
// Fields:
//  ID        – opaque document identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (nil if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        string     `json:"id"`
    UserID    string     `json:"user_id"`
    TokenHash string     `json:"token_hash"`
    ExpiresAt time.Time  `json:"expires_at"`
    RevokedAt *time.Time `json:"revoked_at,omitempty"`
    CreatedAt time.Time  `json:"created_at"`
}
