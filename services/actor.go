package services

import "github.com/gameon-esports/gameon-rooms/models"

// Actor is the authenticated identity behind a room mutation, as supplied by
// the auth middleware. The room services trust it as already verified.
type Actor struct {
	UserID int
	Role   models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// SystemActor marks scheduler-driven transitions; they bypass the gateway
// but are never attributed to an administrator.
var SystemActor = Actor{UserID: 0, Role: models.RoleAdmin}
