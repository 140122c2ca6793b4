package models

// User is the authenticated viewer's profile as returned by the auth
// endpoints.
type User struct {
	ID       string   `json:"_id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Avatar   string   `json:"profile_image"`
	Emoji    string   `json:"emoji"`
	Society  string   `json:"society"`
	Block    string   `json:"block"`
	Interest []string `json:"interests"`
}

// Ref returns the denormalized snapshot used on posts and comments
// authored by this user.
func (u User) Ref() UserRef {
	avatar := u.Avatar
	if avatar == "" {
		avatar = u.Emoji
	}
	return UserRef{ID: u.ID, Name: u.Name, Avatar: avatar}
}
