package logic

import (
	"math/big"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/blues/raise/internal/errors"
	"github.com/ethereum/go-ethereum/common"
)

// ParseAddress 解析十六进制地址
func ParseAddress(field, s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, apperrors.New(apperrors.CodeInvalidArgument, "invalid address for "+field)
	}
	return common.HexToAddress(s), nil
}

// ParseAddresses 解析地址列表
func ParseAddresses(field string, in []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(in))
	for _, s := range in {
		a, err := ParseAddress(field, s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// ParseAmount 解析十进制金额，不接受负数
func ParseAmount(field, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "invalid decimal amount for "+field)
	}
	if v.Sign() < 0 {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, field+" must not be negative")
	}
	return v, nil
}

// ParseTime 接受 RFC3339 或 unix 秒
func ParseTime(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperrors.New(apperrors.CodeInvalidArgument, "invalid time for "+field)
	}
	return t.UTC(), nil
}

// normalizePage 页码从 1 开始，每页最多 100 条
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
