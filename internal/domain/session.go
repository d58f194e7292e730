package domain

// GitHubUser is the authenticated owner of the backing repository.
type GitHubUser struct {
	Login     string `json:"login"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type LoginRequest struct {
	Token string `json:"token" validate:"required"`
}

type LoginResponse struct {
	User        *GitHubUser `json:"user"`
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
}
