package profile

import "context"

// Roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// Profile is the public part of a user account, owned by the accounts service.
type Profile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar,omitempty"`
	Role       string `json:"role,omitempty"`
	Grade      string `json:"grade,omitempty"`
	SchoolID   string `json:"school_id,omitempty"`
	SchoolName string `json:"school_name,omitempty"`
}

// Directory resolves profiles and school names by ID set.
// Unknown IDs are absent from the returned maps; an error means the directory could not be reached.
type Directory interface {
	GetProfiles(ctx context.Context, ids []string) (map[string]Profile, error)
	GetSchoolNames(ctx context.Context, ids []string) (map[string]string, error)
}
