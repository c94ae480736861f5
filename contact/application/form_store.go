package application

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"contact-gateway/contact/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FormStore guarda o rascunho do formulário e o status do envio.
//
// É o único dono do rascunho; o KVStore é apenas um cache do rascunho (sem
// autoridade). A validação dos campos é responsabilidade de quem chama
// Submit: o store confia no payload recebido.
type FormStore struct {
	mu       sync.Mutex
	draft    domain.FormDraft
	status   domain.SubmissionStatus
	history  []domain.Submission
	inFlight bool

	storage   domain.KVStore
	draftKey  string
	gate      *ThrottleGate
	transport domain.Transport
	stats     domain.StatsStore
	key       domain.Key
	now       func() time.Time
	newID     func() string
	logger    *zap.Logger
}

// FormStoreConfig reúne as dependências do FormStore. Storage, Gate e
// Transport são obrigatórios.
type FormStoreConfig struct {
	Storage   domain.KVStore
	Gate      *ThrottleGate
	Transport domain.Transport
	Stats     domain.StatsStore
	Key       domain.Key
	DraftKey  string
	Now       func() time.Time
	NewID     func() string
	Logger    *zap.Logger
}

// Snapshot é uma cópia consistente do estado para a apresentação.
type Snapshot struct {
	Draft       domain.FormDraft        `json:"draft"`
	Status      domain.SubmissionStatus `json:"status"`
	Submissions int                     `json:"submissions"`
}

// SubmitResult é o que SubmitAsync entrega no canal.
type SubmitResult struct {
	Status domain.SubmissionStatus
	Err    error
}

// NewFormStore cria o store e carrega o rascunho persistido, se houver.
// Falha ao ler o cache resulta em rascunho vazio.
func NewFormStore(ctx context.Context, cfg FormStoreConfig) *FormStore {
	s := &FormStore{
		status:    domain.Idle(),
		storage:   cfg.Storage,
		draftKey:  cfg.DraftKey,
		gate:      cfg.Gate,
		transport: cfg.Transport,
		stats:     cfg.Stats,
		key:       cfg.Key,
		now:       cfg.Now,
		newID:     cfg.NewID,
		logger:    cfg.Logger,
	}
	if s.draftKey == "" {
		s.draftKey = domain.DraftKey
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	if d, ok := s.loadDraft(ctx); ok {
		s.draft = d
	}
	return s
}

// UpdateField altera um campo do rascunho e regrava o cache.
// O status não muda.
func (s *FormStore) UpdateField(ctx context.Context, field domain.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.draft.With(field, value)
	if err != nil {
		return err
	}
	s.draft = next
	s.saveDraft(ctx, next)
	return nil
}

// Reset volta ao rascunho vazio e status Idle, e apaga o cache do rascunho.
// O log do ThrottleGate não é tocado.
func (s *FormStore) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = domain.FormDraft{}
	s.status = domain.Idle()
	s.clearDraft(ctx)
}

// Submit executa o ciclo de envio e devolve o status final.
//
// Toda falha termina em status Failed; o erro devolvido é a causa tipada
// (domain.ThrottleError ou domain.TransportError) para a apresentação
// escolher como exibir. Se já houver um envio em andamento, devolve
// domain.ErrSubmissionInProgress sem tocar no estado.
//
// O envio não pode ser cancelado: o cancelamento de ctx não interrompe o
// transporte.
func (s *FormStore) Submit(ctx context.Context, payload domain.FormDraft) (domain.SubmissionStatus, error) {
	s.mu.Lock()
	if s.inFlight {
		st := s.status
		s.mu.Unlock()
		return st, domain.ErrSubmissionInProgress
	}
	s.inFlight = true
	s.status = domain.Loading()
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)

	if s.gate.IsThrottled(ctx) {
		terr := domain.ThrottleError{Wait: s.gate.TimeUntilNextSubmission(ctx)}
		s.record(ctx, domain.OutcomeThrottled)
		s.logger.Info("submission throttled",
			zap.String("client", string(s.key)),
			zap.Duration("wait", terr.Wait))
		return s.fail(terr), terr
	}

	ack, err := s.transport.Send(ctx, payload)
	if err != nil {
		terr := domain.TransportError{Transport: transportName(s.transport), Err: err}
		s.record(ctx, domain.OutcomeFailed)
		s.logger.Warn("submission failed",
			zap.String("client", string(s.key)),
			zap.String("transport", terr.Transport),
			zap.Error(err))
		return s.fail(terr), terr
	}

	s.gate.RecordSubmission(ctx)
	s.record(ctx, domain.OutcomeAccepted)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearDraft(ctx)
	s.history = append(s.history, domain.Submission{
		ID:          s.newID(),
		Payload:     payload,
		Ack:         ack,
		SubmittedAt: s.now(),
	})
	s.status = domain.Succeeded()
	s.draft = domain.FormDraft{}
	s.inFlight = false

	s.logger.Info("submission accepted",
		zap.String("client", string(s.key)),
		zap.String("ack", ack.ID))
	return s.status, nil
}

// SubmitAsync roda Submit numa goroutine e entrega o resultado no canal
// (buffer 1, nunca bloqueia o envio).
func (s *FormStore) SubmitAsync(ctx context.Context, payload domain.FormDraft) <-chan SubmitResult {
	out := make(chan SubmitResult, 1)
	go func() {
		st, err := s.Submit(ctx, payload)
		out <- SubmitResult{Status: st, Err: err}
		close(out)
	}()
	return out
}

func (s *FormStore) Draft() domain.FormDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *FormStore) Status() domain.SubmissionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *FormStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Draft: s.draft, Status: s.status, Submissions: len(s.history)}
}

// History devolve uma cópia do histórico de envios bem-sucedidos.
func (s *FormStore) History() []domain.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Submission, len(s.history))
	copy(out, s.history)
	return out
}

// Gate expõe o ThrottleGate para a apresentação (tempo de espera).
func (s *FormStore) Gate() *ThrottleGate { return s.gate }

func (s *FormStore) fail(err error) domain.SubmissionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = domain.Failed(err.Error())
	s.inFlight = false
	return s.status
}

func (s *FormStore) record(ctx context.Context, outcome domain.Outcome) {
	if s.stats == nil {
		return
	}
	err := s.stats.Record(ctx, domain.StatsEvent{Key: s.key, Outcome: outcome, At: s.now()})
	if err != nil {
		s.logger.Debug("stats record failed", zap.Error(err))
	}
}

func (s *FormStore) loadDraft(ctx context.Context) (domain.FormDraft, bool) {
	raw, ok, err := s.storage.Get(ctx, s.draftKey)
	if err != nil {
		s.reportStorage(domain.StorageError{Op: "get", Key: s.draftKey, Err: err})
		return domain.FormDraft{}, false
	}
	if !ok || raw == "" {
		return domain.FormDraft{}, false
	}

	var d domain.FormDraft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		s.reportStorage(domain.StorageError{Op: "parse", Key: s.draftKey, Err: err})
		return domain.FormDraft{}, false
	}
	return d, true
}

// caller holds s.mu
func (s *FormStore) saveDraft(ctx context.Context, d domain.FormDraft) {
	b, err := json.Marshal(d)
	if err == nil {
		err = s.storage.Set(ctx, s.draftKey, string(b))
	}
	if err != nil {
		s.reportStorage(domain.StorageError{Op: "set", Key: s.draftKey, Err: err})
	}
}

// caller holds s.mu
func (s *FormStore) clearDraft(ctx context.Context) {
	if err := s.storage.Delete(ctx, s.draftKey); err != nil {
		s.reportStorage(domain.StorageError{Op: "delete", Key: s.draftKey, Err: err})
	}
}

func (s *FormStore) reportStorage(err domain.StorageError) {
	s.logger.Warn("draft cache unavailable",
		zap.String("op", err.Op),
		zap.String("key", err.Key),
		zap.String("client", string(s.key)),
		zap.Error(err.Err))
}

type namedTransport interface {
	Name() string
}

func transportName(t domain.Transport) string {
	if n, ok := t.(namedTransport); ok {
		return n.Name()
	}
	return "unknown"
}

// Busy informa se há um envio em andamento.
func (s *FormStore) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}
