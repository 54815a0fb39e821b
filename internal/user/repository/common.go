package repository

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

const (
	userInfoKeyPrefix  = "user:info:"
	userEmailKeyPrefix = "user:email:"
	loginFailKeyPrefix = "user:login:fail:"
)
