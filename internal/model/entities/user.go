package entities

import "time"

// Role separates the two dashboard profiles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

// User is a dashboard account, referenced by id only in this subsystem.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Post is a bitácora (activity log) entry authored by a user.
type Post struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	GreenhouseID string    `json:"greenhouse_id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
}
