package infra

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FileKV guarda as chaves num documento YAML local. É o equivalente do
// "local storage" para o formulário no terminal: sobrevive a reinícios.
//
// Cada operação relê o arquivo, então duas instâncias no mesmo arquivo veem
// as escritas uma da outra (sem exclusão mútua entre processos).
//
// Um documento que não decodifica é movido para <path>.corrupt e tratado como
// vazio; a próxima escrita recria o arquivo.
type FileKV struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

type FileKVOption func(*FileKV)

func WithFileKVLogger(l *zap.Logger) FileKVOption {
	return func(f *FileKV) {
		if l != nil {
			f.logger = l
		}
	}
}

func NewFileKV(path string, opts ...FileKVOption) (*FileKV, error) {
	if path == "" {
		return nil, errors.New("file storage path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	f := &FileKV{path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// CorruptPath é para onde vai um documento ilegível.
func (f *FileKV) CorruptPath() string { return f.path + ".corrupt" }

func (f *FileKV) Path() string { return f.path }

func (f *FileKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := doc[key]
	return v, ok, nil
}

func (f *FileKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	doc[key] = value
	return f.write(doc)
}

func (f *FileKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return f.write(doc)
}

func (f *FileKV) read() (map[string]string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read storage file: %w", err)
	}

	doc := map[string]string{}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return f.quarantine(err)
	}
	if doc == nil {
		doc = map[string]string{}
	}
	return doc, nil
}

func (f *FileKV) quarantine(decodeErr error) (map[string]string, error) {
	if err := os.Rename(f.path, f.CorruptPath()); err != nil {
		return nil, fmt.Errorf("move corrupt storage file: %w", err)
	}
	f.logger.Warn("storage file corrupt, starting empty",
		zap.String("path", f.path),
		zap.String("moved_to", f.CorruptPath()),
		zap.Error(decodeErr))
	return map[string]string{}, nil
}

// write grava num arquivo temporário e renomeia, para não deixar um
// documento pela metade.
func (f *FileKV) write(doc map[string]string) error {
	b, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode storage file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".kv-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp storage file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write storage file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close storage file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace storage file: %w", err)
	}
	return nil
}
