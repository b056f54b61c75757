package config

import "github.com/ceyewan/flake/xerrors"

// ErrValidationFailed 配置为空或校验失败
var ErrValidationFailed = xerrors.WithCode(xerrors.New("configuration validation failed"), "config_invalid")

// IsNotFound 检查错误是否为配置未找到
func IsNotFound(err error) bool {
	return xerrors.Is(err, xerrors.ErrNotFound)
}

// IsInvalidInput 检查错误是否为配置无效
func IsInvalidInput(err error) bool {
	return xerrors.Is(err, xerrors.ErrInvalidInput) || xerrors.Is(err, ErrValidationFailed)
}
