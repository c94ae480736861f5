package application

import (
	"context"
	"encoding/json"
	"time"

	"contact-gateway/contact/domain"

	"go.uber.org/zap"
)

const (
	DefaultThrottleLimit  = 3
	DefaultThrottleWindow = 30 * time.Minute
)

// ThrottleGate limita o número de envios bem-sucedidos numa janela deslizante.
//
// O log de envios (timestamps em ms) vive no KVStore, que é a única fonte de
// verdade. Falhas de leitura/parse são fail-open: "não bloqueado" e espera 0,
// reportadas apenas no logger.
type ThrottleGate struct {
	Storage domain.KVStore
	Key     string
	Limit   int
	Window  time.Duration
	Now     func() time.Time
	Logger  *zap.Logger
}

type ThrottleOption func(*ThrottleGate)

func WithThrottleLimit(n int) ThrottleOption {
	return func(g *ThrottleGate) { g.Limit = n }
}

func WithThrottleWindow(d time.Duration) ThrottleOption {
	return func(g *ThrottleGate) { g.Window = d }
}

func WithThrottleClock(now func() time.Time) ThrottleOption {
	return func(g *ThrottleGate) { g.Now = now }
}

func WithThrottleLogger(l *zap.Logger) ThrottleOption {
	return func(g *ThrottleGate) { g.Logger = l }
}

func NewThrottleGate(storage domain.KVStore, opts ...ThrottleOption) *ThrottleGate {
	g := &ThrottleGate{
		Storage: storage,
		Key:     domain.SubmissionsKey,
		Limit:   DefaultThrottleLimit,
		Window:  DefaultThrottleWindow,
		Now:     time.Now,
		Logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsThrottled remove do log as entradas fora da janela, regrava o log podado
// e informa se o limite foi atingido. Sempre regrava, mesmo sem mudanças.
func (g *ThrottleGate) IsThrottled(ctx context.Context) bool {
	log, err := g.load(ctx)
	if err != nil {
		g.report("check", err)
		return false
	}

	now := g.nowMillis()
	window := g.Window.Milliseconds()
	recent := log[:0]
	for _, ts := range log {
		if now-ts < window {
			recent = append(recent, ts)
		}
	}

	if err := g.store(ctx, recent); err != nil {
		g.report("check", err)
		return false
	}
	return len(recent) >= g.Limit
}

// RecordSubmission acrescenta o instante atual ao log.
//
// Não poda: a poda fica para o próximo IsThrottled. Logo depois de um
// RecordSubmission o log pode conter entradas vencidas.
func (g *ThrottleGate) RecordSubmission(ctx context.Context) {
	log, err := g.load(ctx)
	if err != nil {
		g.report("record", err)
		return
	}
	log = append(log, g.nowMillis())
	if err := g.store(ctx, log); err != nil {
		g.report("record", err)
	}
}

// TimeUntilNextSubmission lê o log SEM podar e calcula W - (agora - mais antigo).
//
// Usa o timestamp mais antigo do log, mesmo que já esteja fora da janela;
// o valor só é exato enquanto essa entrada ainda está dentro da janela.
func (g *ThrottleGate) TimeUntilNextSubmission(ctx context.Context) time.Duration {
	log, err := g.load(ctx)
	if err != nil {
		g.report("wait", err)
		return 0
	}
	if len(log) == 0 {
		return 0
	}

	oldest := log[0]
	for _, ts := range log[1:] {
		if ts < oldest {
			oldest = ts
		}
	}
	left := g.Window.Milliseconds() - (g.nowMillis() - oldest)
	if left < 0 {
		return 0
	}
	return time.Duration(left) * time.Millisecond
}

// Entries devolve o log atual sem podar (uso administrativo / testes).
func (g *ThrottleGate) Entries(ctx context.Context) ([]int64, error) {
	return g.load(ctx)
}

// load devolve o log persistido. Chave ausente equivale a log vazio.
// Valor corrompido também vira log vazio (é regravado na próxima escrita);
// só falhas do próprio storage retornam erro.
func (g *ThrottleGate) load(ctx context.Context) ([]int64, error) {
	raw, ok, err := g.Storage.Get(ctx, g.Key)
	if err != nil {
		return nil, domain.StorageError{Op: "get", Key: g.Key, Err: err}
	}
	if !ok || raw == "" {
		return []int64{}, nil
	}

	// números JSON podem vir como 1.7e12 ou com fração; trunca para ms
	var nums []float64
	if err := json.Unmarshal([]byte(raw), &nums); err != nil {
		g.report("parse", domain.StorageError{Op: "parse", Key: g.Key, Err: err})
		return []int64{}, nil
	}
	log := make([]int64, 0, len(nums))
	for _, v := range nums {
		log = append(log, int64(v))
	}
	return log, nil
}

func (g *ThrottleGate) store(ctx context.Context, log []int64) error {
	b, err := json.Marshal(log)
	if err != nil {
		return domain.StorageError{Op: "encode", Key: g.Key, Err: err}
	}
	if err := g.Storage.Set(ctx, g.Key, string(b)); err != nil {
		return domain.StorageError{Op: "set", Key: g.Key, Err: err}
	}
	return nil
}

func (g *ThrottleGate) nowMillis() int64 {
	return g.Now().UnixMilli()
}

func (g *ThrottleGate) report(op string, err error) {
	g.Logger.Warn("throttle log unavailable, failing open",
		zap.String("op", op),
		zap.String("key", g.Key),
		zap.Error(err))
}
