package models

// UserRole is carried in the JWT issued by the identity service.
type UserRole string

const (
	RolePlayer UserRole = "player"
	RoleAdmin  UserRole = "admin"
)
