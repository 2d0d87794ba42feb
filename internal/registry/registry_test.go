package registry

import (
	"testing"

	"github.com/vovakirdan/tetris-battle/internal/core"
	"github.com/vovakirdan/tetris-battle/internal/tetris"
)

type fakeStrategy struct {
	seed int64
}

func (fakeStrategy) ID() string    { return "fake" }
func (fakeStrategy) Title() string { return "Fake" }
func (fakeStrategy) Plan(*tetris.Engine) []core.Action {
	return []core.Action{core.ActionHardDrop}
}

func init() {
	Register("fake", func(seed int64) Strategy { return fakeStrategy{seed: seed} })
}

func TestCreate(t *testing.T) {
	s, err := Create("fake", 42)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if got := s.(fakeStrategy).seed; got != 42 {
		t.Errorf("seed = %d, want 42", got)
	}

	if _, err := Create("missing", 0); err == nil {
		t.Error("Create(missing) should fail")
	}
}

func TestListAndExists(t *testing.T) {
	if !Exists("fake") {
		t.Fatal("fake strategy not registered")
	}
	if Exists("missing") {
		t.Error("Exists(missing) = true")
	}

	found := false
	list := List()
	for i, info := range list {
		if i > 0 && list[i-1].ID > info.ID {
			t.Errorf("List() not sorted at %d", i)
		}
		if info.ID == "fake" {
			found = true
			if info.Title != "Fake" {
				t.Errorf("Title = %q, want %q", info.Title, "Fake")
			}
		}
	}
	if !found {
		t.Error("List() missing fake")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()
	Register("fake", func(int64) Strategy { return fakeStrategy{} })
}
