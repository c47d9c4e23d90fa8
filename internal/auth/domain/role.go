package domain

// Role names carried in token payloads. Postgres-style role strings so the
// downstream data layer can map them straight onto database roles.
const (
	RoleAnon        = "anon"
	RolePublicUser  = "public_user"
	RolePublicAdmin = "public_admin"
	RoleAuthAdmin   = "auth_admin"
)
