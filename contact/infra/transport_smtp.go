package infra

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/mail"
	"net/smtp"
	"os"
	"strconv"
	"strings"
	"time"

	"contact-gateway/contact/domain"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"gopkg.in/gomail.v2"
)

// SMTPConfig configura a entrega do formulário por email.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool

	From string
	To   []string
	// SubjectPrefix vai antes do nome do remetente no assunto.
	SubjectPrefix string
	// PhoneRegion é a região padrão para interpretar telefones sem DDI.
	PhoneRegion string
	Timeout     time.Duration
}

func (c SMTPConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 15 * time.Second
	}
	return c.Timeout
}

// SMTPTransport envia o payload sanitizado como email de texto para a
// caixa de contato, com Reply-To apontando para quem preencheu.
//
// Toda a conversa SMTP roda sobre uma conexão com deadline: quando Send
// retorna por timeout a conexão já foi fechada e nada mais é entregue em
// segundo plano. Se o prazo vencer depois do "." do DATA e antes da resposta
// do servidor, o destino do email fica indeterminado e Send reporta erro.
type SMTPTransport struct {
	cfg  SMTPConfig
	send func(ctx context.Context, deadline time.Time, m *gomail.Message) error
}

func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("smtp from is required")
	}
	if len(cleanAddrs(cfg.To)) == 0 {
		return nil, errors.New("smtp recipient is required")
	}
	if cfg.PhoneRegion == "" {
		cfg.PhoneRegion = "US"
	}
	t := &SMTPTransport{cfg: cfg}
	t.send = t.deliver
	return t, nil
}

var _ gomail.Sender = smtpSender{}

func (t *SMTPTransport) Name() string { return "smtp" }

func (t *SMTPTransport) Send(ctx context.Context, payload domain.FormDraft) (domain.Ack, error) {
	id := uuid.NewString()
	msg := t.buildMessage(id, payload)

	// respeita o deadline do ctx se for menor que o timeout configurado
	deadline := time.Now().Add(t.cfg.timeout())
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}

	if err := t.send(ctx, deadline, msg); err != nil {
		if ctx.Err() != nil {
			return domain.Ack{}, ctx.Err()
		}
		var ne net.Error
		if errors.Is(err, os.ErrDeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
			err = context.DeadlineExceeded
		}
		return domain.Ack{}, fmt.Errorf("smtp send: %w", err)
	}
	return domain.Ack{ID: id, Transport: t.Name(), ReceivedAt: time.Now()}, nil
}

// deliver disca, negocia e envia dentro do prazo. O corpo é o gomail.Message;
// o diálogo SMTP é do net/smtp, o mesmo cliente que o Dialer do gomail usa,
// mas sobre uma conexão cujo deadline controlamos.
func (t *SMTPTransport) deliver(ctx context.Context, deadline time.Time, m *gomail.Message) error {
	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
	nd := &net.Dialer{}
	var (
		conn net.Conn
		err  error
	)
	if t.cfg.UseTLS {
		conn, err = (&tls.Dialer{NetDialer: nd, Config: t.tlsConfig()}).DialContext(dialCtx, "tcp", addr)
	} else {
		conn, err = nd.DialContext(dialCtx, "tcp", addr)
	}
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return err
	}
	// cancelamento do ctx derruba o I/O em andamento
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	c, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Close()

	if !t.cfg.UseTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(t.tlsConfig()); err != nil {
				return err
			}
		}
	}
	if t.cfg.Username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)); err != nil {
				return err
			}
		}
	}

	from, to := t.envelope()
	if err := (smtpSender{c}).Send(from, to, m); err != nil {
		return err
	}
	return c.Quit()
}

// envelope extrai os endereços puros de From/To ("Site <a@b.c>" vira a@b.c).
func (t *SMTPTransport) envelope() (string, []string) {
	bare := func(s string) string {
		if a, err := mail.ParseAddress(s); err == nil {
			return a.Address
		}
		return s
	}
	to := cleanAddrs(t.cfg.To)
	for i := range to {
		to[i] = bare(to[i])
	}
	return bare(strings.TrimSpace(t.cfg.From)), to
}

func (t *SMTPTransport) tlsConfig() *tls.Config {
	return &tls.Config{ServerName: t.cfg.Host}
}

// smtpSender implementa gomail.Sender sobre um *smtp.Client.
type smtpSender struct{ *smtp.Client }

func (s smtpSender) Send(from string, to []string, msg io.WriterTo) error {
	if err := s.Mail(from); err != nil {
		return err
	}
	for _, addr := range to {
		if err := s.Rcpt(addr); err != nil {
			return err
		}
	}
	w, err := s.Data()
	if err != nil {
		return err
	}
	if _, err := msg.WriteTo(w); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (t *SMTPTransport) buildMessage(id string, p domain.FormDraft) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", strings.TrimSpace(t.cfg.From))
	msg.SetHeader("To", cleanAddrs(t.cfg.To)...)
	msg.SetHeader("Reply-To", msg.FormatAddress(p.Email, p.Name))
	msg.SetHeader("X-Contact-Submission", id)

	subject := "New contact message from " + p.Name
	if prefix := strings.TrimSpace(t.cfg.SubjectPrefix); prefix != "" {
		subject = prefix + " " + subject
	}
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", renderBody(p, t.cfg.PhoneRegion))
	return msg
}

func renderBody(p domain.FormDraft, region string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name:    %s\n", p.Name)
	fmt.Fprintf(&b, "Email:   %s\n", p.Email)
	if p.Phone != "" {
		fmt.Fprintf(&b, "Phone:   %s\n", e164(p.Phone, region))
	}
	b.WriteString("\n")
	b.WriteString(p.Message)
	b.WriteString("\n")
	return b.String()
}

// e164 tenta normalizar o telefone para +<DDI><número>. Se não for um número
// válido na região, devolve o texto original.
func e164(phone, region string) string {
	num, err := phonenumbers.Parse(phone, region)
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return phone
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

func cleanAddrs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
