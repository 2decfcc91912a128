package models

// UserProfile is a denormalized snapshot of the backend user, captured at
// login and replaced wholesale on an explicit update. It is never partially
// mutated; the backend remains the source of truth.
type UserProfile struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}

// IsZero reports whether the snapshot carries no user at all.
func (u UserProfile) IsZero() bool {
	return u.ID == "" && u.Email == "" && u.Name == "" && u.Image == ""
}

// Merge returns a copy of next with the previously known email retained when
// the new snapshot lacks one.
func (u UserProfile) Merge(next UserProfile) UserProfile {
	if next.Email == "" {
		next.Email = u.Email
	}
	return next
}
