package domain

// Profile is the authenticated user as reported by the backend's "who am I"
// endpoint. It is a snapshot and never mutated locally.
type Profile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
	Email     string `json:"email,omitempty"`
}

// Author is the public part of a profile embedded in presets and comments.
type Author struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}
