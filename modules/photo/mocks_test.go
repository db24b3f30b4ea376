package photo

import (
	"context"
	"encoding/json"
	"sync"

	"ai-lens-server/modules/common/gemini"
	"ai-lens-server/modules/history"
	"ai-lens-server/modules/submodule/replicate"
	"ai-lens-server/modules/upload"
)

// mockText - TextProvider mock
type mockText struct {
	mu        sync.Mutex
	calls     int
	AnalyzeFn func(ctx context.Context, prompt string, image *gemini.InlineImage) (*gemini.Analysis, error)
}

func (m *mockText) Analyze(ctx context.Context, prompt string, image *gemini.InlineImage) (*gemini.Analysis, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.AnalyzeFn != nil {
		return m.AnalyzeFn(ctx, prompt, image)
	}
	return &gemini.Analysis{Text: "mock analysis"}, nil
}

func (m *mockText) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockImage - ImageProvider mock
type mockImage struct {
	mu           sync.Mutex
	uploads      int
	runs         int
	UploadFileFn func(ctx context.Context, data []byte, mimeType, filename string) (string, error)
	RunFn        func(ctx context.Context, model string, input replicate.PredictionInput) (json.RawMessage, error)
}

func (m *mockImage) UploadFile(ctx context.Context, data []byte, mimeType, filename string) (string, error) {
	m.mu.Lock()
	m.uploads++
	m.mu.Unlock()
	if m.UploadFileFn != nil {
		return m.UploadFileFn(ctx, data, mimeType, filename)
	}
	return "https://api.replicate.com/v1/files/mock", nil
}

func (m *mockImage) Run(ctx context.Context, model string, input replicate.PredictionInput) (json.RawMessage, error) {
	m.mu.Lock()
	m.runs++
	m.mu.Unlock()
	if m.RunFn != nil {
		return m.RunFn(ctx, model, input)
	}
	return json.RawMessage(`"https://replicate.delivery/mock.png"`), nil
}

func (m *mockImage) Calls() (uploads, runs int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads, m.runs
}

// mockLoader - ReferenceLoader mock
type mockLoader struct {
	LoadFn func(name string) (*upload.Reference, error)
}

func (m *mockLoader) Load(name string) (*upload.Reference, error) {
	if m.LoadFn != nil {
		return m.LoadFn(name)
	}
	return nil, upload.ErrNotFound
}

// mockHistory - history.Store mock
type mockHistory struct {
	mu       sync.Mutex
	entries  []history.Entry
	RecordFn func(ctx context.Context, entry history.Entry) error
}

func (m *mockHistory) Record(ctx context.Context, entry history.Entry) error {
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.mu.Unlock()
	if m.RecordFn != nil {
		return m.RecordFn(ctx, entry)
	}
	return nil
}

func (m *mockHistory) Recent(context.Context, int) ([]history.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]history.Entry{}, m.entries...), nil
}

// mockGenerator - Generator mock
type mockGenerator struct {
	GenerateFn func(ctx context.Context, req GenerateRequest, progress ProgressFunc) (*GenerationResult, error)
}

func (m *mockGenerator) Generate(ctx context.Context, req GenerateRequest, progress ProgressFunc) (*GenerationResult, error) {
	return m.GenerateFn(ctx, req, progress)
}
