package mailer

import (
	"bufio"
	"context"
	"encoding/base64"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smtpServer is a minimal ESMTP listener that accepts any AUTH PLAIN and
// records the session.
type smtpServer struct {
	ln net.Listener

	mu       sync.Mutex
	authLine string
	rcpt     []string
	data     string
}

func startSMTPServer(t *testing.T, host string) *smtpServer {
	t.Helper()
	ln, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		t.Skipf("cannot listen on %s: %v", host, err)
	}
	srv := &smtpServer{ln: ln}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go srv.serve(conn)
		}
	}()
	return srv
}

func (s *smtpServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *smtpServer) serve(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

	r := bufio.NewReader(conn)
	reply := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }

	reply("220 test ESMTP ready")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])

		switch verb {
		case "EHLO", "HELO":
			reply("250-test greets you")
			reply("250-AUTH PLAIN LOGIN")
			reply("250 8BITMIME")
		case "AUTH":
			s.mu.Lock()
			s.authLine = line
			s.mu.Unlock()
			reply("235 2.7.0 Authentication successful")
		case "RCPT":
			s.mu.Lock()
			s.rcpt = append(s.rcpt, line)
			s.mu.Unlock()
			reply("250 OK")
		case "DATA":
			reply("354 End data with <CR><LF>.<CR><LF>")
			var b strings.Builder
			for {
				dl, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if dl == ".\r\n" {
					break
				}
				b.WriteString(dl)
			}
			s.mu.Lock()
			s.data = b.String()
			s.mu.Unlock()
			reply("250 OK queued")
		case "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func TestSendWithAttachment_PlainSMTPWithAuth(t *testing.T) {
	// 127.0.0.2 is loopback but not "localhost", so cleartext AUTH is not
	// exempted by the SMTP client.
	srv := startSMTPServer(t, "127.0.0.2")

	m := New(Settings{
		Host:      "127.0.0.2",
		Port:      srv.port(),
		User:      "bot@real.test",
		Pass:      "secret",
		EnableSSL: false,
		Timeout:   5 * time.Second,
	})

	ok := m.SendWithAttachment(context.Background(), writeAttachment(t), "Clientes_20240510120000.xlsx", "dest@example.com")
	require.True(t, ok, "SendWithAttachment() = false, want true")

	srv.mu.Lock()
	defer srv.mu.Unlock()

	require.True(t, strings.HasPrefix(srv.authLine, "AUTH PLAIN"), "auth line = %q", srv.authLine)
	fields := strings.Fields(srv.authLine)
	require.Len(t, fields, 3)
	creds, err := base64.StdEncoding.DecodeString(fields[2])
	require.NoError(t, err)
	assert.Equal(t, "\x00bot@real.test\x00secret", string(creds))

	require.Len(t, srv.rcpt, 1)
	assert.Contains(t, srv.rcpt[0], "dest@example.com")
	assert.Contains(t, srv.data, "Clientes_20240510120000.xlsx")
}
