package email

import (
	"context"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	from := &mail.Address{Name: "Troubadour", Address: "digest@troubadour.app"}
	to := &mail.Address{Address: "ada@example.com"}
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	msg, err := buildMessage(from, to, "Your weekly Troubadour digest", "Hi Ada,\n\nGreat week!\n", at)
	require.NoError(t, err)

	s := string(msg)
	assert.True(t, strings.HasPrefix(s, "From: \"Troubadour\" <digest@troubadour.app>\r\n"))
	assert.Contains(t, s, "To: <ada@example.com>\r\n")
	assert.Contains(t, s, "Subject: Your weekly Troubadour digest\r\n")
	assert.Contains(t, s, "Date: Mon, 19 Oct 2026 09:00:00 +0000\r\n")
	assert.True(t, strings.HasSuffix(s, "\r\n\r\nHi Ada,\r\n\r\nGreat week!\r\n"))
}

func TestBuildMessage_RejectsHeaderInjection(t *testing.T) {
	from := &mail.Address{Address: "a@example.com"}
	_, err := buildMessage(from, from, "hi\r\nBcc: x@example.com", "", time.Now())
	assert.ErrorIs(t, err, ErrHeaderInjection)
}

func TestNewSMTPMailer_Validates(t *testing.T) {
	_, err := NewSMTPMailer(SMTPConfig{From: "digest@troubadour.app"})
	assert.Error(t, err)

	_, err = NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", From: "not an address"})
	assert.Error(t, err)

	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", From: "Troubadour <digest@troubadour.app>"})
	require.NoError(t, err)
	assert.Equal(t, 587, m.cfg.Port)
}

func TestSendEmail_InvalidRecipient(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", From: "digest@troubadour.app"})
	require.NoError(t, err)

	err = m.SendEmail(context.Background(), "nobody", "s", "b")
	assert.ErrorContains(t, err, "invalid recipient address")
}
