package auth

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/campus-hub/campus-hub/internal/shared"
)

// Stable validator messages. Tests and templates key off the exact text, so
// they must not drift.
const (
	MsgLoginTooShort    = "Логин должен содержать не менее 5 символов"
	MsgLoginBadCharset  = "Логин может содержать только латинские буквы и цифры"
	MsgPasswordTooShort = "Пароль должен содержать не менее 8 символов"
	MsgPasswordTooLong  = "Пароль слишком длинный (максимум 128 символов)"
	MsgPasswordSpaces   = "Пароль не должен содержать пробелов"
	MsgPasswordNoCase   = "Пароль должен содержать хотя бы одну заглавную и одну строчную буквы (латинскую или кириллическую)"
	MsgPasswordNoDigit  = "Пароль должен содержать хотя бы одну арабскую цифру"
	MsgPasswordCharset  = "Пароль содержит недопустимые символы"
)

var (
	loginPattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

	upperLetter = regexp.MustCompile(`[A-ZА-ЯЁ]`)
	lowerLetter = regexp.MustCompile(`[a-zа-яё]`)
	anyDigit    = regexp.MustCompile(`[0-9]`)

	// Letters (Latin and Cyrillic), digits and the fixed punctuation set.
	passwordPattern = regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁ0-9~!?@#$%^&*_\-+()\[\]{}><\\/|"'.:,;]+$`)
)

// CheckLogin validates a new account login. Rules run in a fixed order and
// only the first violation is reported.
func CheckLogin(login string) error {
	if utf8.RuneCountInString(login) < 5 {
		return shared.NewValidationError("login", MsgLoginTooShort)
	}
	if !loginPattern.MatchString(login) {
		return shared.NewValidationError("login", MsgLoginBadCharset)
	}
	return nil
}

// CheckPassword validates password composition. The rule order is part of
// the contract: length, whitespace, letter case, digit, charset.
func CheckPassword(password string) error {
	length := utf8.RuneCountInString(password)
	if length < 8 {
		return shared.NewValidationError("password", MsgPasswordTooShort)
	}
	if length > 128 {
		return shared.NewValidationError("password", MsgPasswordTooLong)
	}
	if strings.ContainsRune(password, ' ') {
		return shared.NewValidationError("password", MsgPasswordSpaces)
	}
	if !upperLetter.MatchString(password) || !lowerLetter.MatchString(password) {
		return shared.NewValidationError("password", MsgPasswordNoCase)
	}
	if !anyDigit.MatchString(password) {
		return shared.NewValidationError("password", MsgPasswordNoDigit)
	}
	if !passwordPattern.MatchString(password) {
		return shared.NewValidationError("password", MsgPasswordCharset)
	}
	return nil
}
