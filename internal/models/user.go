package models

// Roles
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User is a login account read from the users table.
// PasswordHash is a bcrypt hash and never leaves the server.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}

func (u User) ToRow() map[string]string {
	return map[string]string{ColUsername: u.Username, ColPasswordHash: u.PasswordHash, ColRole: u.Role}
}

func UserFromRow(row map[string]string) User {
	role := row[ColRole]
	if role == "" {
		role = RoleStaff
	}
	return User{Username: row[ColUsername], PasswordHash: row[ColPasswordHash], Role: role}
}
