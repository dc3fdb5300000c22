package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-hub/campus-hub/internal/shared"
)

func validationMessage(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	var ve *shared.ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Message
}

func TestCheckLogin(t *testing.T) {
	cases := []struct {
		name    string
		login   string
		wantMsg string
	}{
		{"four chars", "abcd", MsgLoginTooShort},
		{"empty", "", MsgLoginTooShort},
		{"five chars ok", "abcde", ""},
		{"alphanumeric ok", "user2026", ""},
		{"dash rejected", "abc-de", MsgLoginBadCharset},
		{"space rejected", "abc de", MsgLoginBadCharset},
		{"cyrillic rejected", "пользователь", MsgLoginBadCharset},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckLogin(tc.login)
			if tc.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tc.wantMsg, validationMessage(t, err))
		})
	}
}

func TestCheckPasswordRuleOrder(t *testing.T) {
	// Length wins over composition: "a" is short AND lacks digits, but the
	// short-length message must be the one reported.
	assert.Equal(t, MsgPasswordTooShort, validationMessage(t, CheckPassword("a")))

	// Case rule fires before the digit rule.
	assert.Equal(t, MsgPasswordNoCase, validationMessage(t, CheckPassword("aaaaaaaa")))

	// With both cases present, the digit rule is next.
	assert.Equal(t, MsgPasswordNoDigit, validationMessage(t, CheckPassword("aaaaAAAA")))

	// Whitespace is rejected before composition is even considered.
	assert.Equal(t, MsgPasswordSpaces, validationMessage(t, CheckPassword("aaaa aaaa")))
}

func TestCheckPassword(t *testing.T) {
	cases := []struct {
		name     string
		password string
		wantMsg  string
	}{
		{"valid latin", "Passw0rd", ""},
		{"valid cyrillic", "Пароль123x", ""},
		{"valid with punctuation", "Aa1!?@#$%^&*", ""},
		{"too long", strings.Repeat("Aa1", 43), MsgPasswordTooLong},
		{"tab is outside the allow-list", "Aa1aaaa\t", MsgPasswordCharset},
		{"emoji rejected", "Aa1aaaa☺", MsgPasswordCharset},
		{"no digit", "Password", MsgPasswordNoDigit},
		{"no upper", "password1", MsgPasswordNoCase},
		{"yo letters accepted", "Ёёaaaa11", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckPassword(tc.password)
			if tc.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tc.wantMsg, validationMessage(t, err))
		})
	}
}

func TestCheckPasswordLengthInRunes(t *testing.T) {
	// 8 Cyrillic runes occupy 16 bytes; the limits count characters.
	assert.NoError(t, CheckPassword("Пп1ппппп"))
	assert.Equal(t, MsgPasswordTooLong, validationMessage(t, CheckPassword("П"+strings.Repeat("п", 127)+"1")))
}
