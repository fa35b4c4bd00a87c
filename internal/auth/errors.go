package auth

import "errors"

var ErrInvalidCredentials = errors.New("invalid email or password")
var ErrEmailTaken = errors.New("email is already registered")
var ErrInvalidToken = errors.New("invalid or expired token")
var ErrUserNotFound = errors.New("user not found")

var ErrCreateUser = errors.New("failed to create user")
var ErrCreateToken = errors.New("failed to create token")
var ErrFailedToFindUser = errors.New("failed to find user")
var ErrFailedToFindToken = errors.New("failed to find token")
var ErrDeleteToken = errors.New("failed to delete token")
