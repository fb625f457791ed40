package user

import "cashcraft/internal/domain/user"

type credentialsInput struct {
	Body user.Credentials
}

type tokenOutput struct {
	Body TokenResponse
}

type TokenResponse struct {
	UserID int    `json:"userId" doc:"User identifier"`
	Token  string `json:"token" doc:"Opaque bearer token"`
}
