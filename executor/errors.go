// executor/errors.go
// 执行错误分类。Kind 与 Message 都是对外稳定契约：
// 客户端和外部测试套按这些字符串做匹配，改动即破坏线协议。
package executor

import (
	"errors"
	"fmt"

	"ledger/model"
)

// ErrorKind 错误类别名
type ErrorKind string

const (
	KindEmpty                       ErrorKind = "Empty"
	KindTooLong                     ErrorKind = "TooLong"
	KindReservedCharacter           ErrorKind = "ReservedCharacter"
	KindWhitespace                  ErrorKind = "Whitespace"
	KindRepetition                  ErrorKind = "Repetition"
	KindFailedToFindDomain          ErrorKind = "FailedToFindDomain"
	KindFailedToFindAccount         ErrorKind = "FailedToFindAccount"
	KindFailedToFindAssetDefinition ErrorKind = "FailedToFindAssetDefinition"
	KindFailedToFindAsset           ErrorKind = "FailedToFindAsset"
	KindFailedToFindRole            ErrorKind = "FailedToFindRole"
	KindInvalidCharacter            ErrorKind = "InvalidCharacter"
	KindInvalidValueType            ErrorKind = "InvalidValueType"
	KindInsufficientFunds           ErrorKind = "InsufficientFunds"
	KindOverflow                    ErrorKind = "Overflow"
	KindNotPermitted                ErrorKind = "NotPermitted"
	KindUnknownPermission           ErrorKind = "UnknownPermission"
	KindSignature                   ErrorKind = "Signature"
	KindStructural                  ErrorKind = "Structural"
	KindExpired                     ErrorKind = "Expired"
)

// Error 带类别的执行错误
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError 构造带类别的错误
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf 提取错误类别；非本包错误返回 ""
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ReasonOf 转成区块留档用的拒绝原因
func ReasonOf(err error) model.RejectionReason {
	var e *Error
	if errors.As(err, &e) {
		return model.RejectionReason{Kind: string(e.Kind), Message: e.Message}
	}
	return model.RejectionReason{Kind: "Internal", Message: err.Error()}
}

// ===================== 稳定文案构造器 =====================

func errEmpty() *Error {
	return NewError(KindEmpty, "Empty name is not allowed")
}

func errTooLong(name string) *Error {
	return NewError(KindTooLong, "Name too long: %d characters, must not exceed %d", len(name), MaxNameLen)
}

func errReservedCharacter() *Error {
	return NewError(KindReservedCharacter, "Reserved character found in name: '@', '#' and '$' are reserved for id delimiters")
}

func errWhitespace() *Error {
	return NewError(KindWhitespace, "White space is not allowed in names")
}

func errRepetition(what, id string) *Error {
	return NewError(KindRepetition, "Repetition: %s '%s' is already registered", what, id)
}

func errNoDomain(name string) *Error {
	return NewError(KindFailedToFindDomain, "Failed to find domain: '%s'", name)
}

func errNoAccount(id string) *Error {
	return NewError(KindFailedToFindAccount, "Failed to find account: '%s'", id)
}

func errNoDefinition(id string) *Error {
	return NewError(KindFailedToFindAssetDefinition, "Failed to find asset definition: '%s'", id)
}

func errNoAsset(id string) *Error {
	return NewError(KindFailedToFindAsset, "Failed to find asset: '%s'", id)
}

func errNoRole(name string) *Error {
	return NewError(KindFailedToFindRole, "Failed to find role: '%s'", name)
}

func errInvalidCharacter(detail string) *Error {
	return NewError(KindInvalidCharacter, "Invalid character: %s", detail)
}

func errInvalidValueType(v string) *Error {
	return NewError(KindInvalidValueType, "Matching variant not found: unknown asset value type '%s'", v)
}

func errInsufficientFunds(have, need string) *Error {
	return NewError(KindInsufficientFunds, "Insufficient funds: have %s, need %s", have, need)
}

func errOverflow() *Error {
	return NewError(KindOverflow, "Overflow: asset value out of range")
}

// errGenesisOnly 固定文案，外部测试套整句匹配
func errGenesisOnly() *Error {
	return NewError(KindNotPermitted, "Operation is not permitted: This operation is only allowed inside the genesis block")
}

func errNotPermitted(detail string) *Error {
	return NewError(KindNotPermitted, "Operation is not permitted: %s", detail)
}

func errUnknownPermission(token string) *Error {
	return NewError(KindUnknownPermission, "Unknown permission token: '%s'", token)
}
