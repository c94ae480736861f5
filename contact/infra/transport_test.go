package infra

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"contact-gateway/contact/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

var samplePayload = domain.FormDraft{
	Name:    "Jo",
	Email:   "jo@x.com",
	Phone:   "(555) 123-4567",
	Message: "hello there, team",
}

func TestDelayTransport_AcksAfterDelay(t *testing.T) {
	tr := NewDelayTransport(5 * time.Millisecond)
	start := time.Now()

	ack, err := tr.Send(context.Background(), samplePayload)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
	assert.NotEmpty(t, ack.ID)
	assert.Equal(t, "delay", ack.Transport)
}

func TestDelayTransport_FailsWithConfiguredError(t *testing.T) {
	tr := NewDelayTransport(0)
	tr.Err = errors.New("simulated outage")

	_, err := tr.Send(context.Background(), samplePayload)
	assert.EqualError(t, err, "simulated outage")
}

func TestDelayTransport_StopsOnContextDone(t *testing.T) {
	tr := NewDelayTransport(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Send(ctx, samplePayload)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSMTPTransport_Validates(t *testing.T) {
	_, err := NewSMTPTransport(SMTPConfig{From: "a@b.c", To: []string{"x@y.z"}})
	assert.Error(t, err)
	_, err = NewSMTPTransport(SMTPConfig{Host: "smtp", To: []string{"x@y.z"}})
	assert.Error(t, err)
	_, err = NewSMTPTransport(SMTPConfig{Host: "smtp", From: "a@b.c", To: []string{" "}})
	assert.Error(t, err)
}

func TestSMTPTransport_SendBuildsMessage(t *testing.T) {
	tr, err := NewSMTPTransport(SMTPConfig{
		Host:          "smtp.example.com",
		Port:          587,
		From:          "site@example.com",
		To:            []string{" inbox@example.com "},
		SubjectPrefix: "[site]",
	})
	require.NoError(t, err)

	var got *gomail.Message
	tr.send = func(_ context.Context, _ time.Time, m *gomail.Message) error {
		got = m
		return nil
	}

	ack, err := tr.Send(context.Background(), samplePayload)
	require.NoError(t, err)
	assert.Equal(t, "smtp", ack.Transport)
	require.NotNil(t, got)

	assert.Equal(t, []string{"inbox@example.com"}, got.GetHeader("To"))
	assert.Equal(t, []string{"[site] New contact message from Jo"}, got.GetHeader("Subject"))
	assert.Equal(t, []string{ack.ID}, got.GetHeader("X-Contact-Submission"))
	require.Len(t, got.GetHeader("Reply-To"), 1)
	assert.Contains(t, got.GetHeader("Reply-To")[0], "jo@x.com")
}

func TestSMTPTransport_SendWrapsDialError(t *testing.T) {
	tr, err := NewSMTPTransport(SMTPConfig{Host: "smtp", From: "a@b.c", To: []string{"x@y.z"}})
	require.NoError(t, err)
	tr.send = func(context.Context, time.Time, *gomail.Message) error { return errors.New("dial tcp: refused") }

	_, err = tr.Send(context.Background(), samplePayload)
	assert.EqualError(t, err, "smtp send: dial tcp: refused")
}

// fakeSMTP aceita uma conexão e conversa o mínimo de SMTP. Com hang, não
// manda nem a saudação e só espera o cliente fechar.
type fakeSMTP struct {
	ln     net.Listener
	hang   bool
	data   chan string
	closed chan error
}

func startFakeSMTP(t *testing.T, hang bool) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeSMTP{ln: ln, hang: hang, data: make(chan string, 1), closed: make(chan error, 1)}
	t.Cleanup(func() { _ = ln.Close() })
	go f.serve()
	return f
}

func (f *fakeSMTP) port() int { return f.ln.Addr().(*net.TCPAddr).Port }

func (f *fakeSMTP) serve() {
	conn, err := f.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	r := bufio.NewReader(conn)

	if f.hang {
		_, err := r.ReadByte()
		f.closed <- err
		return
	}

	reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }
	reply("220 fake ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			f.closed <- err
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			reply("250 fake")
		case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"):
			reply("250 ok")
		case cmd == "DATA":
			reply("354 go ahead")
			var b strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					f.closed <- err
					return
				}
				if l == ".\r\n" {
					break
				}
				b.WriteString(l)
			}
			f.data <- b.String()
			reply("250 queued")
		case cmd == "QUIT":
			reply("221 bye")
		default:
			reply("500 what")
		}
	}
}

func TestSMTPTransport_DeliversOverSMTP(t *testing.T) {
	srv := startFakeSMTP(t, false)
	tr, err := NewSMTPTransport(SMTPConfig{
		Host:          "127.0.0.1",
		Port:          srv.port(),
		From:          "site@example.com",
		To:            []string{"inbox@example.com"},
		SubjectPrefix: "[site]",
		Timeout:       2 * time.Second,
	})
	require.NoError(t, err)

	ack, err := tr.Send(context.Background(), samplePayload)
	require.NoError(t, err)

	select {
	case body := <-srv.data:
		assert.Contains(t, body, "Subject: [site] New contact message from Jo")
		assert.Contains(t, body, "X-Contact-Submission: "+ack.ID)
		assert.Contains(t, body, "hello there, team")
	case <-time.After(2 * time.Second):
		t.Fatal("server never received DATA")
	}
}

func TestSMTPTransport_TimeoutClosesConnection(t *testing.T) {
	srv := startFakeSMTP(t, true)
	tr, err := NewSMTPTransport(SMTPConfig{
		Host:    "127.0.0.1",
		Port:    srv.port(),
		From:    "site@example.com",
		To:      []string{"inbox@example.com"},
		Timeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = tr.Send(context.Background(), samplePayload)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)

	// quando Send retorna a conexão já foi fechada: não sobra envio pendente
	select {
	case err := <-srv.closed:
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(time.Second):
		t.Fatal("connection still open after Send returned")
	}
}

func TestSMTPTransport_ContextDeadlineWins(t *testing.T) {
	srv := startFakeSMTP(t, true)
	tr, err := NewSMTPTransport(SMTPConfig{
		Host:    "127.0.0.1",
		Port:    srv.port(),
		From:    "site@example.com",
		To:      []string{"inbox@example.com"},
		Timeout: time.Minute,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = tr.Send(ctx, samplePayload)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSMTPTransport_EnvelopeUsesBareAddresses(t *testing.T) {
	tr, err := NewSMTPTransport(SMTPConfig{
		Host: "smtp",
		From: "Site <site@example.com>",
		To:   []string{" Team <team@example.com> ", "", "ops@example.com"},
	})
	require.NoError(t, err)

	from, to := tr.envelope()
	assert.Equal(t, "site@example.com", from)
	assert.Equal(t, []string{"team@example.com", "ops@example.com"}, to)
}

func TestRenderBody_NormalizesPhone(t *testing.T) {
	body := renderBody(samplePayload, "US")
	assert.Contains(t, body, "Phone:   +15551234567")
	assert.True(t, strings.HasSuffix(body, "hello there, team\n"))

	noPhone := samplePayload
	noPhone.Phone = ""
	assert.NotContains(t, renderBody(noPhone, "US"), "Phone:")
}

func TestWebhookTransport_PostsJSON(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Token"))
		_ = json.NewDecoder(r.Body).Decode(&received)
		_, _ = w.Write([]byte(`{"id":"remote-42"}`))
	}))
	defer srv.Close()

	tr, err := NewWebhookTransport(srv.URL, time.Second, WithWebhookHeader("X-Token", "secret"))
	require.NoError(t, err)

	ack, err := tr.Send(context.Background(), samplePayload)
	require.NoError(t, err)
	assert.Equal(t, "remote-42", ack.ID)
	assert.Equal(t, "jo@x.com", received["email"])
	assert.Equal(t, "hello there, team", received["message"])
	assert.NotEmpty(t, received["id"])
}

func TestWebhookTransport_Non2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tr, err := NewWebhookTransport(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = tr.Send(context.Background(), samplePayload)
	assert.EqualError(t, err, "webhook responded 502")
}
