package config

import (
	"testing"
)

// mockSection is a test implementation of the Section interface
type mockSection struct {
	id          string
	title       string
	description string
	data        map[string]interface{}
	validateErr error
}

func (m *mockSection) ID() string                                { return m.id }
func (m *mockSection) Title() string                             { return m.title }
func (m *mockSection) Description() string                       { return m.description }
func (m *mockSection) Data() map[string]interface{}              { return m.data }
func (m *mockSection) SetData(data map[string]interface{}) error { m.data = data; return nil }
func (m *mockSection) Validate() error                           { return m.validateErr }
func (m *mockSection) Reset()                                    { m.data = make(map[string]interface{}) }

// mockStore is a test implementation of the Store interface
type mockStore struct {
	sections map[string]map[string]interface{}
	loadErr  error
	saveErr  error
	saved    bool
}

func newMockStore() *mockStore {
	return &mockStore{
		sections: make(map[string]map[string]interface{}),
	}
}

func (m *mockStore) Load() error {
	return m.loadErr
}

func (m *mockStore) Save() error {
	m.saved = true
	return m.saveErr
}

func (m *mockStore) GetSection(sectionID string) (map[string]interface{}, error) {
	if data, exists := m.sections[sectionID]; exists {
		return data, nil
	}
	return make(map[string]interface{}), nil
}

func (m *mockStore) SetSection(sectionID string, data map[string]interface{}) error {
	m.sections[sectionID] = data
	return nil
}

func TestNewManager(t *testing.T) {
	store := newMockStore()
	manager := NewManager(store)

	if manager == nil {
		t.Fatal("NewManager returned nil")
	}

	if manager.Store() != store {
		t.Error("Manager does not reference correct store")
	}

	if len(manager.GetSections()) != 0 {
		t.Error("New manager should have no sections")
	}
}

func TestManager_RegisterSection(t *testing.T) {
	t.Run("registers section successfully", func(t *testing.T) {
		manager := NewManager(newMockStore())
		section := &mockSection{id: "test", title: "Test"}

		if err := manager.RegisterSection(section); err != nil {
			t.Fatalf("RegisterSection failed: %v", err)
		}

		retrieved, ok := manager.GetSection("test")
		if !ok {
			t.Fatal("Section not found after registration")
		}

		if retrieved.ID() != "test" {
			t.Error("Retrieved section has wrong ID")
		}
	})

	t.Run("prevents duplicate registration", func(t *testing.T) {
		manager := NewManager(newMockStore())

		if err := manager.RegisterSection(&mockSection{id: "test"}); err != nil {
			t.Fatalf("First registration failed: %v", err)
		}

		if err := manager.RegisterSection(&mockSection{id: "test"}); err == nil {
			t.Error("Expected error for duplicate registration")
		}
	})

	t.Run("maintains registration order", func(t *testing.T) {
		manager := NewManager(newMockStore())
		ids := []string{"charlie", "alpha", "bravo"}
		for _, id := range ids {
			if err := manager.RegisterSection(&mockSection{id: id}); err != nil {
				t.Fatalf("RegisterSection(%s) failed: %v", id, err)
			}
		}

		sections := manager.GetSections()
		if len(sections) != len(ids) {
			t.Fatalf("Expected %d sections, got %d", len(ids), len(sections))
		}
		for i, id := range ids {
			if sections[i].ID() != id {
				t.Errorf("Section %d: expected %s, got %s", i, id, sections[i].ID())
			}
		}
	})
}

func TestManager_LoadAll(t *testing.T) {
	store := newMockStore()
	store.sections["test"] = map[string]interface{}{"key": "value"}

	manager := NewManager(store)
	section := &mockSection{id: "test"}
	if err := manager.RegisterSection(section); err != nil {
		t.Fatalf("RegisterSection failed: %v", err)
	}

	if err := manager.LoadAll(); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	if section.data["key"] != "value" {
		t.Error("Section did not receive persisted data")
	}
}

func TestManager_SaveAll(t *testing.T) {
	t.Run("saves all sections", func(t *testing.T) {
		store := newMockStore()
		manager := NewManager(store)
		section := &mockSection{id: "test", data: map[string]interface{}{"key": "value"}}
		if err := manager.RegisterSection(section); err != nil {
			t.Fatalf("RegisterSection failed: %v", err)
		}

		if err := manager.SaveAll(); err != nil {
			t.Fatalf("SaveAll failed: %v", err)
		}

		if !store.saved {
			t.Error("Store was not saved")
		}
		if store.sections["test"]["key"] != "value" {
			t.Error("Section data was not written to store")
		}
	})

	t.Run("rejects invalid sections", func(t *testing.T) {
		store := newMockStore()
		manager := NewManager(store)
		section := &mockSection{id: "bad", validateErr: errInvalid}
		if err := manager.RegisterSection(section); err != nil {
			t.Fatalf("RegisterSection failed: %v", err)
		}

		if err := manager.SaveAll(); err == nil {
			t.Error("Expected error for invalid section")
		}
		if store.saved {
			t.Error("Store should not be saved when validation fails")
		}
	})
}

var errInvalid = &validationError{}

type validationError struct{}

func (e *validationError) Error() string { return "invalid" }
