// Package tui é o formulário de contato no terminal (bubbletea).
//
// O fluxo segue a arquitetura Elm: tecla -> Update -> FormStore -> View.
// O rascunho é salvo a cada alteração, então fechar o terminal não perde
// nada.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"contact-gateway/contact/application"
	"contact-gateway/contact/domain"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	waitRefreshInterval = 60 * time.Second
	savedIndicatorFor   = 2 * time.Second
	lowCharsThreshold   = 50
)

type (
	waitTickMsg    struct{}
	savedExpireMsg struct{ seq int }
	submitDoneMsg  application.SubmitResult
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).MarginBottom(1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	focusStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
	warnBanner   = lipgloss.NewStyle().Foreground(lipgloss.Color("#1A1A1A")).Background(lipgloss.Color("#F5D76E")).Padding(0, 1)
	okBanner     = lipgloss.NewStyle().Foreground(lipgloss.Color("#1A1A1A")).Background(lipgloss.Color("#7BD88F")).Padding(0, 1)
	failBanner   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#C0392B")).Padding(0, 1)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	counterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

var fieldLabels = map[domain.Field]string{
	domain.FieldName:    "Name",
	domain.FieldEmail:   "Email",
	domain.FieldPhone:   "Phone (optional)",
	domain.FieldMessage: "Message",
}

// Model é o estado da tela. O rascunho e o status moram no FormStore; aqui
// ficam só os widgets e os erros de validação exibidos.
type Model struct {
	ctx   context.Context
	store *application.FormStore

	inputs  map[domain.Field]*textinput.Model
	message textarea.Model
	focus   int

	errs     map[domain.Field]string
	wait     time.Duration
	saved    bool
	savedSeq int
	quitting bool
}

// New cria o formulário já preenchido com o rascunho salvo.
func New(ctx context.Context, store *application.FormStore) *Model {
	m := &Model{
		ctx:    ctx,
		store:  store,
		inputs: map[domain.Field]*textinput.Model{},
		errs:   map[domain.Field]string{},
	}

	draft := store.Draft()
	for _, f := range []domain.Field{domain.FieldName, domain.FieldEmail, domain.FieldPhone} {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = fieldLabels[f]
		in.CharLimit = 120
		in.SetValue(draft.Get(f))
		m.inputs[f] = &in
	}

	m.message = textarea.New()
	m.message.Placeholder = "How can we help?"
	m.message.ShowLineNumbers = false
	m.message.CharLimit = 0
	m.message.SetHeight(5)
	m.message.SetValue(draft.Message)

	m.setFocus(0)
	m.wait = store.Gate().TimeUntilNextSubmission(ctx)
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitTick())
}

func waitTick() tea.Cmd {
	return tea.Tick(waitRefreshInterval, func(time.Time) tea.Msg { return waitTickMsg{} })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w := max(30, min(msg.Width-6, 80))
		for _, in := range m.inputs {
			in.Width = w
		}
		m.message.SetWidth(w)
		return m, nil

	case waitTickMsg:
		m.wait = m.store.Gate().TimeUntilNextSubmission(m.ctx)
		return m, waitTick()

	case savedExpireMsg:
		if msg.seq == m.savedSeq {
			m.saved = false
		}
		return m, nil

	case submitDoneMsg:
		if msg.Status.Kind == domain.StatusSucceeded {
			m.clearInputs()
		}
		m.wait = m.store.Gate().TimeUntilNextSubmission(m.ctx)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			m.setFocus((m.focus + 1) % len(domain.Fields))
			return m, nil
		case "shift+tab":
			m.setFocus((m.focus + len(domain.Fields) - 1) % len(domain.Fields))
			return m, nil
		case "ctrl+s":
			return m, m.submit()
		case "ctrl+r":
			m.store.Reset(m.ctx)
			m.clearInputs()
			return m, nil
		}
	}

	return m, m.updateFocused(msg)
}

// updateFocused repassa a mensagem ao widget ativo e, se o valor mudou,
// grava o campo no store e revalida.
func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	field := domain.Fields[m.focus]
	before := m.value(field)

	var cmd tea.Cmd
	if field == domain.FieldMessage {
		m.message, cmd = m.message.Update(msg)
	} else {
		in := m.inputs[field]
		*in, cmd = in.Update(msg)
	}

	value := m.value(field)
	if value == before {
		return cmd
	}
	if field == domain.FieldPhone {
		value = domain.FormatPhone(value)
		in := m.inputs[field]
		in.SetValue(value)
		in.CursorEnd()
	}

	_ = m.store.UpdateField(m.ctx, field, value)
	m.errs[field] = domain.ValidateField(field, value)

	m.saved = true
	m.savedSeq++
	seq := m.savedSeq
	expire := tea.Tick(savedIndicatorFor, func(time.Time) tea.Msg { return savedExpireMsg{seq: seq} })
	return tea.Batch(cmd, expire)
}

func (m *Model) submit() tea.Cmd {
	if !m.canSubmit() {
		return nil
	}

	draft := m.store.Draft()
	errs := domain.ValidateDraft(draft)
	m.errs = map[domain.Field]string{}
	for f, msg := range errs {
		m.errs[f] = msg
	}
	if len(errs) > 0 {
		return nil
	}

	done := m.store.SubmitAsync(m.ctx, draft.Sanitize())
	return func() tea.Msg { return submitDoneMsg(<-done) }
}

// canSubmit espelha o botão desabilitado: enviando, aguardando a janela ou
// com erro visível.
func (m *Model) canSubmit() bool {
	if m.store.Status().Kind == domain.StatusLoading || m.wait > 0 {
		return false
	}
	for _, msg := range m.errs {
		if msg != "" {
			return false
		}
	}
	return true
}

func (m *Model) setFocus(i int) {
	m.focus = i
	for f, in := range m.inputs {
		if f == domain.Fields[i] {
			in.Focus()
		} else {
			in.Blur()
		}
	}
	if domain.Fields[i] == domain.FieldMessage {
		m.message.Focus()
	} else {
		m.message.Blur()
	}
}

func (m *Model) value(f domain.Field) string {
	if f == domain.FieldMessage {
		return m.message.Value()
	}
	return m.inputs[f].Value()
}

func (m *Model) clearInputs() {
	for _, in := range m.inputs {
		in.SetValue("")
	}
	m.message.SetValue("")
	m.errs = map[domain.Field]string{}
	m.saved = false
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Contact Us"))
	b.WriteString("\n")

	if banner := domain.FormatWait(m.wait); banner != "" {
		b.WriteString(warnBanner.Render(banner) + "\n\n")
	}
	st := m.store.Status()
	switch st.Kind {
	case domain.StatusSucceeded:
		b.WriteString(okBanner.Render("Thank you for your message. We'll be in touch soon!") + "\n\n")
	case domain.StatusFailed:
		b.WriteString(failBanner.Render(st.Reason) + "\n\n")
	}

	for i, f := range domain.Fields {
		label := labelStyle.Render(fieldLabels[f])
		if i == m.focus {
			label = focusStyle.Render("› " + fieldLabels[f])
		}
		b.WriteString(label + "\n")
		if f == domain.FieldMessage {
			b.WriteString(m.message.View() + "\n")
			remaining := domain.RemainingChars(m.message.Value())
			style := counterStyle
			if remaining < lowCharsThreshold {
				style = errorStyle
			}
			b.WriteString(style.Render(fmt.Sprintf("%d characters remaining", remaining)) + "\n")
		} else {
			b.WriteString(m.inputs[f].View() + "\n")
		}
		if msg := m.errs[f]; msg != "" {
			b.WriteString(errorStyle.Render(msg) + "\n")
		}
		b.WriteString("\n")
	}

	action := "ctrl+s send message"
	if st.Kind == domain.StatusLoading {
		action = "Sending..."
	} else if !m.canSubmit() {
		action = "send disabled"
	}
	footer := fmt.Sprintf("%s · ctrl+r reset form · tab next field · esc quit", action)
	if m.saved {
		footer = "Draft saved · " + footer
	}
	b.WriteString(hintStyle.Render(footer))

	return boxStyle.Render(b.String())
}

// Unsaved indica se há rascunho não enviado (aviso ao sair).
func (m *Model) Unsaved() bool {
	return !m.store.Draft().IsEmpty()
}
