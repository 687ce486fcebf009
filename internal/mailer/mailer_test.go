package mailer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type fakeSender struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeSender) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msgs...)
	return nil
}

type recorder struct {
	dials  int
	sender *fakeSender
}

func (r *recorder) dial(Settings) (Sender, error) {
	r.dials++
	return r.sender, nil
}

func validSettings() Settings {
	return Settings{
		Host:      "smtp.real.test",
		Port:      587,
		User:      "bot@real.test",
		Pass:      "secret",
		EnableSSL: true,
		Timeout:   time.Second,
	}
}

func writeAttachment(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Clientes_20240510120000.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("PK fake workbook"), 0o600))
	return path
}

func TestLooksValid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		want   bool
	}{
		{"valid", func(*Settings) {}, true},
		{"empty host", func(s *Settings) { s.Host = "" }, false},
		{"placeholder host", func(s *Settings) { s.Host = "smtp.example.com" }, false},
		{"zero port", func(s *Settings) { s.Port = 0 }, false},
		{"no user", func(s *Settings) { s.User = "" }, false},
		{"no pass", func(s *Settings) { s.Pass = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(&s)
			if got := s.LooksValid(); got != tt.want {
				t.Errorf("LooksValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSecurity(t *testing.T) {
	tests := []struct {
		ssl  bool
		port int
		want Security
	}{
		{true, 465, SecurityImplicitTLS},
		{true, 587, SecuritySTARTTLS},
		{true, 25, SecuritySTARTTLS},
		{false, 465, SecurityNone},
		{false, 25, SecurityNone},
	}
	for _, tt := range tests {
		s := Settings{EnableSSL: tt.ssl, Port: tt.port}
		if got := s.Security(); got != tt.want {
			t.Errorf("Security(ssl=%v, port=%d) = %v, want %v", tt.ssl, tt.port, got, tt.want)
		}
	}
}

func TestSendWithAttachment_Sends(t *testing.T) {
	rec := &recorder{sender: &fakeSender{}}
	m := NewWithDialer(validSettings(), rec.dial)

	ok := m.SendWithAttachment(context.Background(), writeAttachment(t), "Clientes_20240510120000.xlsx", "dest@x.com")

	require.True(t, ok)
	assert.Equal(t, 1, rec.dials)
	require.Len(t, rec.sender.sent, 1)

	msg := rec.sender.sent[0]
	subject := msg.GetGenHeader(mail.HeaderSubject)
	require.Len(t, subject, 1)
	assert.Equal(t, Subject, subject[0])

	to, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"dest@x.com"}, to)

	atts := msg.GetAttachments()
	require.Len(t, atts, 1)
	assert.Equal(t, "Clientes_20240510120000.xlsx", atts[0].Name)
}

func TestSendWithAttachment_ForcePickupSkipsNetwork(t *testing.T) {
	rec := &recorder{sender: &fakeSender{}}
	s := validSettings()
	s.ForcePickup = true

	ok := NewWithDialer(s, rec.dial).SendWithAttachment(context.Background(), writeAttachment(t), "f.xlsx", "dest@x.com")

	assert.False(t, ok)
	assert.Equal(t, 0, rec.dials)
}

func TestSendWithAttachment_InvalidSettingsSkipNetwork(t *testing.T) {
	rec := &recorder{sender: &fakeSender{}}
	s := validSettings()
	s.Host = "smtp.example.com"

	ok := NewWithDialer(s, rec.dial).SendWithAttachment(context.Background(), writeAttachment(t), "f.xlsx", "dest@x.com")

	assert.False(t, ok)
	assert.Equal(t, 0, rec.dials)
}

func TestSendWithAttachment_MissingAttachmentStillSends(t *testing.T) {
	rec := &recorder{sender: &fakeSender{}}
	m := NewWithDialer(validSettings(), rec.dial)

	ok := m.SendWithAttachment(context.Background(), filepath.Join(t.TempDir(), "gone.xlsx"), "gone.xlsx", "dest@x.com")

	require.True(t, ok)
	require.Len(t, rec.sender.sent, 1)
	assert.Empty(t, rec.sender.sent[0].GetAttachments())
}

func TestSendWithAttachment_TransportErrorIsFalse(t *testing.T) {
	rec := &recorder{sender: &fakeSender{err: errors.New("dial tcp: connection refused")}}

	ok := NewWithDialer(validSettings(), rec.dial).SendWithAttachment(context.Background(), writeAttachment(t), "f.xlsx", "dest@x.com")

	assert.False(t, ok)
	assert.Equal(t, 1, rec.dials)
}

func TestSendWithAttachment_DialErrorIsFalse(t *testing.T) {
	m := NewWithDialer(validSettings(), func(Settings) (Sender, error) {
		return nil, errors.New("bad options")
	})
	assert.False(t, m.SendWithAttachment(context.Background(), writeAttachment(t), "f.xlsx", "dest@x.com"))
}

func TestSendWithAttachment_BadRecipientIsFalse(t *testing.T) {
	rec := &recorder{sender: &fakeSender{}}
	ok := NewWithDialer(validSettings(), rec.dial).SendWithAttachment(context.Background(), writeAttachment(t), "f.xlsx", "not an address")
	assert.False(t, ok)
	assert.Equal(t, 0, rec.dials)
}

func TestSender(t *testing.T) {
	s := Settings{}
	assert.Equal(t, DefaultSender, s.sender())
	s.User = "u@x.com"
	assert.Equal(t, "u@x.com", s.sender())
	s.From = "f@x.com"
	assert.Equal(t, "f@x.com", s.sender())
}

func TestDial_BuildsClient(t *testing.T) {
	for _, s := range []Settings{
		{Host: "smtp.real.test", Port: 465, EnableSSL: true, User: "u", Pass: "p", Timeout: time.Second},
		{Host: "smtp.real.test", Port: 587, EnableSSL: true, Timeout: time.Second},
		{Host: "smtp.real.test", Port: 25, Timeout: time.Second},
	} {
		c, err := Dial(s)
		require.NoError(t, err)
		assert.NotNil(t, c)
	}
}
