package service

import "errors"

// 业务层通用错误，handler 可根据错误类型映射到合适的 HTTP 状态码。
var (
	ErrSheetNotFound      = errors.New("sheet not found")
	ErrInvalidSheet       = errors.New("invalid sheet")
	ErrInvalidExportToken = errors.New("invalid export token")
)
