package checkpoint

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/tuanio/noisy-student-training-aped/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "exp"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func sampleStates() (TrainerState, ModelState) {
	trainer := TrainerState{
		RunID:          "run-1",
		Epoch:          3,
		Step:           120,
		OptimizerState: json.RawMessage(`{"lr":0.001}`),
		SchedulerState: json.RawMessage(`{"count":120,"last_lr":0.0004}`),
		Hyperparams:    json.RawMessage(`{"max_epochs":10}`),
	}
	model := ModelState{
		State:       json.RawMessage(`{"w":[1,2,3]}`),
		Hyperparams: map[string]any{"layers": 2.0},
	}
	return trainer, model
}

func TestStore_Save_CreatesVersionWithTwoBlobs(t *testing.T) {
	s := newTestStore(t)
	trainer, model := sampleStates()

	dir, err := s.Save("TeacherTrainer", "Conformer", 3, 120, trainer, model)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(dir) != "version_0" {
		t.Fatalf("first save dir = %q, want version_0", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d files in version dir, want 2", len(entries))
	}
	for _, name := range []string{
		"TeacherTrainer.epoch=3.step=120.pt",
		"Conformer.epoch=3.step=120.pt",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing blob %s: %v", name, err)
		}
	}
}

func TestStore_Save_NeverTouchesExistingVersions(t *testing.T) {
	s := newTestStore(t)
	trainer, model := sampleStates()

	dir0, err := s.Save("TeacherTrainer", "Conformer", 1, 10, trainer, model)
	if err != nil {
		t.Fatalf("Save #1: %v", err)
	}
	before, err := os.ReadFile(filepath.Join(dir0, "TeacherTrainer.epoch=1.step=10.pt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	dir1, err := s.Save("TeacherTrainer", "Conformer", 2, 20, trainer, model)
	if err != nil {
		t.Fatalf("Save #2: %v", err)
	}
	if filepath.Base(dir1) != "version_1" {
		t.Fatalf("second save dir = %q, want version_1", dir1)
	}

	after, err := os.ReadFile(filepath.Join(dir0, "TeacherTrainer.epoch=1.step=10.pt"))
	if err != nil {
		t.Fatalf("ReadFile after second save: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("earlier version blob changed after a later save")
	}
}

func TestStore_NextVersion_CountsExistingDirs(t *testing.T) {
	s := newTestStore(t)
	trainer, model := sampleStates()

	for i := 0; i < 3; i++ {
		if _, err := s.Save("T", "M", i, i*10, trainer, model); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}
	n, err := s.NextVersion()
	if err != nil {
		t.Fatalf("NextVersion: %v", err)
	}
	if n != 3 {
		t.Errorf("NextVersion = %d, want 3", n)
	}
}

func TestStore_SaveLoad_RoundTripIsBitIdentical(t *testing.T) {
	s := newTestStore(t)
	trainer, model := sampleStates()

	dir, err := s.Save("StudentTrainer", "Conformer", 3, 120, trainer, model)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	trainerPath := filepath.Join(dir, "StudentTrainer.epoch=3.step=120.pt")
	modelPath := filepath.Join(dir, "Conformer.epoch=3.step=120.pt")

	loadedTrainer, err := s.LoadTrainer(trainerPath)
	if err != nil {
		t.Fatalf("LoadTrainer: %v", err)
	}
	loadedModel, err := s.LoadModel(modelPath)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}

	dir2, err := s.Save("StudentTrainer", "Conformer", 3, 120, loadedTrainer, loadedModel)
	if err != nil {
		t.Fatalf("re-Save: %v", err)
	}
	orig, _ := os.ReadFile(trainerPath)
	resaved, err := os.ReadFile(filepath.Join(dir2, "StudentTrainer.epoch=3.step=120.pt"))
	if err != nil {
		t.Fatalf("ReadFile resaved: %v", err)
	}
	if !bytes.Equal(orig, resaved) {
		t.Error("restored-then-resaved trainer blob is not bit-identical")
	}
}

func TestStore_Latest_ResolvesHighestVersion(t *testing.T) {
	s := newTestStore(t)
	trainer, model := sampleStates()

	s.Save("TeacherTrainer", "Conformer", 1, 10, trainer, model)
	s.Save("TeacherTrainer", "Conformer", 2, 20, trainer, model)

	v, err := s.Latest("TeacherTrainer")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if v.Number != 1 {
		t.Errorf("Latest version = %d, want 1", v.Number)
	}
	if filepath.Base(v.TrainerPath) != "TeacherTrainer.epoch=2.step=20.pt" {
		t.Errorf("trainer path = %q", v.TrainerPath)
	}
	if filepath.Base(v.ModelPath) != "Conformer.epoch=2.step=20.pt" {
		t.Errorf("model path = %q", v.ModelPath)
	}
}

func TestStore_Latest_EmptyStore_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Latest("TeacherTrainer"); !errors.HasCode(err, errors.ErrCodeCheckpointNotFound) {
		t.Fatalf("err = %v, want CHECKPOINT_NOT_FOUND", err)
	}
}

func TestStore_LoadTrainer_CorruptBlob(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.Root(), "broken.pt")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadTrainer(path); !errors.HasCode(err, errors.ErrCodeCheckpointCorrupt) {
		t.Fatalf("err = %v, want CHECKPOINT_CORRUPT", err)
	}
}

func TestStore_LoadModel_MissingFile_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.LoadModel(filepath.Join(s.Root(), "nope.pt")); !errors.HasCode(err, errors.ErrCodeCheckpointNotFound) {
		t.Fatalf("err = %v, want CHECKPOINT_NOT_FOUND", err)
	}
}
