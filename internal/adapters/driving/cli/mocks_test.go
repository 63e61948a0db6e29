package cli

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sefs/internal/core/domain"
)

// mockOrganiser implements driving.Organiser for testing.
type mockOrganiser struct {
	mu        sync.Mutex
	scanned   bool
	ran       bool
	scanErr   error
	runErr    error
	run       *domain.ReorganiseRun
	reorgErr  error
	runs      []domain.ReorganiseRun
	lastLimit int
	tree      *domain.TreeNode
}

func (m *mockOrganiser) Run(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ran = true
	return m.runErr
}

func (m *mockOrganiser) Scan(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanned = true
	return m.scanErr
}

func (m *mockOrganiser) Reorganise(_ context.Context) (*domain.ReorganiseRun, error) {
	return m.run, m.reorgErr
}

func (m *mockOrganiser) Tree() *domain.TreeNode { return m.tree }

func (m *mockOrganiser) Subscribe() (<-chan domain.Notification, func()) {
	ch := make(chan domain.Notification)
	return ch, func() {}
}

func (m *mockOrganiser) Runs(_ context.Context, limit int) ([]domain.ReorganiseRun, error) {
	m.lastLimit = limit
	return m.runs, m.reorgErr
}

// mockSettingsService implements driving.SettingsService over a map.
type mockSettingsService struct {
	values       map[string]string
	secrets      map[string]bool
	setErr       error
	validateErr  error
	embeddingErr error
	llmErr       error

	embedding []string
	llm       []string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		values: map[string]string{
			"root":               "",
			"threshold":          "0.35",
			"debounce":           "3s",
			"embedding.provider": "hashing",
			"llm.api_key":        "",
		},
		secrets: map[string]bool{"llm.api_key": true},
	}
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := domain.DefaultSettings()
	s.Root = m.values["root"]
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if _, ok := m.values[key]; !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Value(key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return v, nil
}

func (m *mockSettingsService) List() ([]domain.SettingEntry, error) {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]domain.SettingEntry, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.SettingEntry{Key: k, Value: m.values[k], Secret: m.secrets[k]})
	}
	return out, nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.embedding = []string{string(p), model, apiKey}
	return m.setErr
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.llm = []string{string(p), model, apiKey}
	return m.setErr
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.Settings { return domain.DefaultSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig(_ context.Context) error { return m.embeddingErr }

func (m *mockSettingsService) ValidateLLMConfig(_ context.Context) error { return m.llmErr }

// openCall records one call to the session opener.
type openCall struct {
	root      string
	exclusive bool
}

// fakeOpener returns an opener serving org and recording its calls.
func fakeOpener(org *mockOrganiser, settings domain.Settings, calls *[]openCall) Opener {
	return func(_ context.Context, root string, exclusive bool) (*Session, error) {
		*calls = append(*calls, openCall{root: root, exclusive: exclusive})
		settings.Root = root
		return &Session{Organiser: org, Settings: settings, Close: func() error { return nil }}, nil
	}
}

// withServices installs settings and opener for the duration of the test.
func withServices(t *testing.T, settings *mockSettingsService, opener Opener) {
	t.Helper()
	oldSettings, oldOpener := settingsService, openSession
	settingsService = nil
	if settings != nil {
		settingsService = settings
	}
	openSession = opener
	t.Cleanup(func() {
		settingsService, openSession = oldSettings, oldOpener
	})
}

// execute runs the root command with args and stdin, returning all output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default so tests do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func sampleTree() *domain.TreeNode {
	return &domain.TreeNode{
		Name: "inbox", Type: domain.NodeRoot, Path: "/data/inbox",
		Children: []*domain.TreeNode{
			{Name: "Finance", Type: domain.NodeDomain, Path: "/data/inbox/Finance", Children: []*domain.TreeNode{
				{Name: "Tax", Type: domain.NodeCluster, Path: "/data/inbox/Finance/Tax", Children: []*domain.TreeNode{
					{Name: "a.txt", Type: domain.NodeFile, Path: "/data/inbox/Finance/Tax/a.txt"},
					{Name: "b.txt", Type: domain.NodeFile, Path: "/data/inbox/Finance/Tax/b.txt"},
				}},
			}},
		},
	}
}
