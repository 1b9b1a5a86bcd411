package model

import (
	"errors"
	"fmt"
)

var (
	ErrNoData      = errors.New("no data")
	ErrFetchFailed = errors.New("fetch failed")
)

// FetchError 上游调用失败
type FetchError struct {
	Op         string // 接口名, 如 daily / hk_daily
	Code       string
	Permission bool // 权限不足, 通常是积分档位不够
	Err        error
}

func (e *FetchError) Error() string {
	if e.Permission {
		return fmt.Sprintf("fetch %s for %s: permission denied: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("fetch %s for %s: %v", e.Op, e.Code, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }
