package chat

import "errors"

// 会话层错误，handler 通过 errors.Is 映射为 HTTP 状态码。
var (
	ErrAlreadyJoined   = errors.New("user already joined")
	ErrNotFound        = errors.New("user not found")
	ErrInvalidUsername = errors.New("username must not be empty")
)
