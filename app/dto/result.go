package dto

import "github.com/vibast-solutions/ms-go-shop-auth/app/entity"

// TokenPair is the result of any transition that mints tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type RegisterResult struct {
	User *entity.User
}
