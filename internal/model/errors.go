package model

import "errors"

// 领域错误，各层共用；handler 按这些值映射 HTTP 状态码
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrEventFull          = errors.New("event is at capacity")
	ErrAlreadyRegistered  = errors.New("you are already registered")
	ErrAlreadyVoted       = errors.New("you have already voted on this question")
)
