package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/sefs/internal/core/domain"
)

// mockOrganiser is a mock implementation of driving.Organiser.
type mockOrganiser struct {
	tree      *domain.TreeNode
	runs      []domain.ReorganiseRun
	run       *domain.ReorganiseRun
	err       error
	lastLimit int
}

func (m *mockOrganiser) Run(_ context.Context) error  { return m.err }
func (m *mockOrganiser) Scan(_ context.Context) error { return m.err }

func (m *mockOrganiser) Reorganise(_ context.Context) (*domain.ReorganiseRun, error) {
	return m.run, m.err
}

func (m *mockOrganiser) Tree() *domain.TreeNode { return m.tree }

func (m *mockOrganiser) Subscribe() (<-chan domain.Notification, func()) {
	ch := make(chan domain.Notification)
	return ch, func() { close(ch) }
}

func (m *mockOrganiser) Runs(_ context.Context, limit int) ([]domain.ReorganiseRun, error) {
	m.lastLimit = limit
	return m.runs, m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	entries []domain.SettingEntry
	err     error
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := domain.DefaultSettings()
	return &s, m.err
}

func (m *mockSettingsService) Set(_, _ string) error { return m.err }

func (m *mockSettingsService) Value(_ string) (string, error) { return "", m.err }

func (m *mockSettingsService) List() ([]domain.SettingEntry, error) {
	return m.entries, m.err
}

func (m *mockSettingsService) SetEmbeddingProvider(_ domain.AIProvider, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) SetLLMProvider(_ domain.AIProvider, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) Validate() error { return m.err }

func (m *mockSettingsService) GetDefaults() domain.Settings { return domain.DefaultSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig(_ context.Context) error { return m.err }

func (m *mockSettingsService) ValidateLLMConfig(_ context.Context) error { return m.err }

// sampleTree is root/{Finance/Tax/{a,b}, Unsorted/Files/{c}}.
func sampleTree() *domain.TreeNode {
	file := func(dir, name string) *domain.TreeNode {
		return &domain.TreeNode{Name: name, Type: domain.NodeFile, Path: dir + "/" + name}
	}
	return &domain.TreeNode{
		Name: "root", Type: domain.NodeRoot, Path: "/data/root",
		Children: []*domain.TreeNode{
			{Name: "Finance", Type: domain.NodeDomain, Path: "/data/root/Finance", Children: []*domain.TreeNode{
				{Name: "Tax", Type: domain.NodeCluster, Path: "/data/root/Finance/Tax", Children: []*domain.TreeNode{
					file("/data/root/Finance/Tax", "a.txt"),
					file("/data/root/Finance/Tax", "b.txt"),
				}},
			}},
			{Name: domain.UnsortedDomain, Type: domain.NodeDomain, Children: []*domain.TreeNode{
				{Name: domain.UnsortedCluster, Type: domain.NodeCluster, Children: []*domain.TreeNode{
					file("/data/root", "c.txt"),
				}},
			}},
		},
	}
}

func sampleRun() domain.ReorganiseRun {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return domain.ReorganiseRun{
		ID:        "run-1",
		Trigger:   domain.TriggerManual,
		StartedAt: start,
		EndedAt:   start.Add(250 * time.Millisecond),
		Files:     3,
		Clusters:  1,
		Moved:     2,
	}
}
