package authn

import "time"

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

type authResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}
