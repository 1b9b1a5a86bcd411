package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jing2uo/tsanalyst/model"
)

var (
	ErrWrongLength   = errors.New("code must have 5 (HK) or 6 (domestic) digits")
	ErrUnknownPrefix = errors.New("unrecognized domestic code prefix")
)

// ClassifyError 代码无法识别
type ClassifyError struct {
	Input  string
	Digits string
	Reason error
}

func (e *ClassifyError) Error() string {
	return fmt.Sprintf("invalid code %q: %v", e.Input, e.Reason)
}

func (e *ClassifyError) Unwrap() error { return e.Reason }

func (e *ClassifyError) Outcome() string { return "invalid_code" }

// Classify 去掉所有非数字字符后按长度和首位路由:
// 5 位为港股, 6 位按首位 6→SH, 0/3→SZ, 8/4→BJ
func Classify(raw string) (model.InstrumentCode, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	switch len(digits) {
	case 5:
		return model.InstrumentCode{Body: digits, Market: model.MarketHK}, nil
	case 6:
		switch digits[0] {
		case '6':
			return model.InstrumentCode{Body: digits, Market: model.MarketSH}, nil
		case '0', '3':
			return model.InstrumentCode{Body: digits, Market: model.MarketSZ}, nil
		case '8', '4':
			return model.InstrumentCode{Body: digits, Market: model.MarketBJ}, nil
		}
		return model.InstrumentCode{}, &ClassifyError{Input: raw, Digits: digits, Reason: ErrUnknownPrefix}
	default:
		return model.InstrumentCode{}, &ClassifyError{Input: raw, Digits: digits, Reason: ErrWrongLength}
	}
}
