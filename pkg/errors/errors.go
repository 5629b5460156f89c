package errors

import "errors"

// ErrDuplicateKey 唯一约束冲突：记录已存在
var ErrDuplicateKey = errors.New("记录已存在")
