package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/tuanio/noisy-student-training-aped/errors"
	"github.com/tuanio/noisy-student-training-aped/logger"
)

const versionPrefix = "version_"

// Version describes one saved version directory and the two blobs inside it.
type Version struct {
	Number      int
	Dir         string
	TrainerPath string
	ModelPath   string
}

// Store writes and reads versioned checkpoints under a single experiment
// directory. Saves never modify existing version directories.
type Store struct {
	root string
	log  *logger.Logger
}

// NewStore opens a store rooted at the experiment path, creating the
// directory if it does not exist yet.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, errors.InvalidConfig("experiment_path", "must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.CheckpointWrite(root).WithCause(err)
	}
	return &Store{
		root: root,
		log:  logger.WithComponent("checkpoint"),
	}, nil
}

// Root returns the experiment directory the store writes under.
func (s *Store) Root() string { return s.root }

// NextVersion returns the number the next Save will use: the count of
// existing version_* subdirectories.
func (s *Store) NextVersion() (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, errors.CheckpointWrite(s.root).WithCause(err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), versionPrefix) {
			n++
		}
	}
	return n, nil
}

// Save creates a fresh version directory and writes the trainer and model
// blobs into it as {name}.epoch={epoch}.step={step}.pt files. It returns
// the path of the directory it created.
func (s *Store) Save(trainerName, modelName string, epoch, step int, trainer TrainerState, model ModelState) (string, error) {
	n, err := s.NextVersion()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, fmt.Sprintf("%s%d", versionPrefix, n))
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", errors.CheckpointWrite(dir).WithCause(err)
	}

	trainerPath := filepath.Join(dir, blobName(trainerName, epoch, step))
	if err := writeBlob(trainerPath, trainer); err != nil {
		return "", err
	}
	modelPath := filepath.Join(dir, blobName(modelName, epoch, step))
	if err := writeBlob(modelPath, model); err != nil {
		return "", err
	}

	s.log.Info("checkpoint saved", logger.Fields(
		logger.FieldVersion, n,
		logger.FieldEpoch, epoch,
		logger.FieldStep, step,
	))
	return dir, nil
}

// LoadTrainer reads a trainer blob from the given file path.
func (s *Store) LoadTrainer(path string) (TrainerState, error) {
	var state TrainerState
	if err := readBlob(path, &state); err != nil {
		return TrainerState{}, err
	}
	return state, nil
}

// LoadModel reads a model blob from the given file path.
func (s *Store) LoadModel(path string) (ModelState, error) {
	var state ModelState
	if err := readBlob(path, &state); err != nil {
		return ModelState{}, err
	}
	return state, nil
}

// Latest locates the highest-numbered version directory and resolves the
// trainer and model blobs inside it. The file whose name starts with
// trainerName is classified as the trainer blob; the other .pt file is
// the model blob.
func (s *Store) Latest(trainerName string) (*Version, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.CheckpointNotFound(s.root).WithCause(err)
	}
	numbers := make([]int, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), versionPrefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(e.Name(), versionPrefix))
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}
	if len(numbers) == 0 {
		return nil, errors.CheckpointNotFound(s.root)
	}
	sort.Ints(numbers)
	latest := numbers[len(numbers)-1]
	dir := filepath.Join(s.root, fmt.Sprintf("%s%d", versionPrefix, latest))

	v := &Version{Number: latest, Dir: dir}
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.CheckpointNotFound(dir).WithCause(err)
	}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".pt") {
			continue
		}
		path := filepath.Join(dir, f.Name())
		if strings.HasPrefix(f.Name(), trainerName+".") {
			v.TrainerPath = path
		} else {
			v.ModelPath = path
		}
	}
	if v.TrainerPath == "" || v.ModelPath == "" {
		return nil, errors.CheckpointCorrupt(dir)
	}
	return v, nil
}

func blobName(name string, epoch, step int) string {
	return fmt.Sprintf("%s.epoch=%d.step=%d.pt", name, epoch, step)
}

func writeBlob(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.CheckpointWrite(path).WithCause(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.CheckpointWrite(path).WithCause(err)
	}
	return nil
}

func readBlob(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.CheckpointNotFound(path).WithCause(err)
		}
		return errors.CheckpointCorrupt(path).WithCause(err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.CheckpointCorrupt(path).WithCause(err)
	}
	return nil
}
