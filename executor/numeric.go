// executor/numeric.go
// Numeric 资产值的带边界运算。值域 [0, 2^96-1]，十进制小数可表示。
package executor

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// MaxNumeric Numeric 资产值上限（2^96-1）
var MaxNumeric = func() decimal.Decimal {
	max := new(big.Int).Exp(big.NewInt(2), big.NewInt(96), nil)
	max.Sub(max, big.NewInt(1))
	return decimal.NewFromBigInt(max, 0)
}()

// ParseQuantity 解析一笔操作数量：必须是合法十进制且 > 0
func ParseQuantity(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errInvalidValueType(s)
	}
	if d.Sign() <= 0 {
		return decimal.Zero, errInvalidValueType(s)
	}
	if d.Cmp(MaxNumeric) > 0 {
		return decimal.Zero, errOverflow()
	}
	return d, nil
}

// parseBalance 解析已存的余额；空串按 0
func parseBalance(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errInvalidValueType(s)
	}
	if d.Sign() < 0 {
		// 权威状态里不该出现负值
		return decimal.Zero, errInvalidValueType(s)
	}
	return d, nil
}

// SafeAdd 加法，越过上限返回 Overflow
func SafeAdd(a, b decimal.Decimal) (decimal.Decimal, error) {
	result := a.Add(b)
	if result.Cmp(MaxNumeric) > 0 {
		return decimal.Zero, errOverflow()
	}
	return result, nil
}

// SafeSub 减法，a < b 返回 InsufficientFunds
func SafeSub(a, b decimal.Decimal) (decimal.Decimal, error) {
	if a.Cmp(b) < 0 {
		return decimal.Zero, errInsufficientFunds(a.String(), b.String())
	}
	return a.Sub(b), nil
}
