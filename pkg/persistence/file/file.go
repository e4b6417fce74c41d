// Package file provides file-based persistence for workflows, enrollments and resume schedules.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dukex/leadflow/pkg/persistence"
)

const (
	workflowsDir   = "workflows"
	enrollmentsDir = "enrollments"
	schedulesDir   = "schedules"
)

// Persistence implements the persistence.Persistence interface using the file system.
// Each record is one JSON file; writes go through a temp file and a rename.
type Persistence struct {
	root           string
	workflowRepo   *WorkflowRepository
	enrollmentRepo *EnrollmentRepository
	scheduleRepo   *ScheduleRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)
	store := &store{root: cleanRoot}

	return &Persistence{
		root:           cleanRoot,
		workflowRepo:   &WorkflowRepository{store: store},
		enrollmentRepo: &EnrollmentRepository{store: store},
		scheduleRepo:   &ScheduleRepository{store: store},
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}

func (fp *Persistence) EnrollmentRepository() persistence.EnrollmentRepository {
	return fp.enrollmentRepo
}

func (fp *Persistence) ScheduleRepository() persistence.ScheduleRepository {
	return fp.scheduleRepo
}

// store serializes record access within the process.
type store struct {
	root string
	mu   sync.RWMutex
}

func (s *store) path(dir, id string) string {
	return filepath.Join(s.root, dir, id+".json")
}

// read decodes a record into out. It reports false when the record does not exist.
func (s *store) read(dir, id string, out any) (bool, error) {
	body, err := os.ReadFile(s.path(dir, id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to read %s/%s: %w", dir, id, err)
	}

	err = json.Unmarshal(body, out)
	if err != nil {
		return false, fmt.Errorf("failed to decode %s/%s: %w", dir, id, err)
	}

	return true, nil
}

func (s *store) write(dir, id string, record any) error {
	directory := filepath.Join(s.root, dir)

	err := os.MkdirAll(directory, 0750)
	if err != nil {
		return fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", dir, id, err)
	}

	tmp, err := os.CreateTemp(directory, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s/%s: %w", dir, id, err)
	}

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}

	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to write %s/%s: %w", dir, id, err)
	}

	err = os.Rename(tmp.Name(), s.path(dir, id))
	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to replace %s/%s: %w", dir, id, err)
	}

	return nil
}

// remove deletes a record. It reports false when the record did not exist.
func (s *store) remove(dir, id string) (bool, error) {
	err := os.Remove(s.path(dir, id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to delete %s/%s: %w", dir, id, err)
	}

	return true, nil
}

// ids lists the record ids stored under dir.
func (s *store) ids(dir string) ([]string, error) {
	files, err := fs.Glob(os.DirFS(filepath.Join(s.root, dir)), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	ids := make([]string, 0, len(files))
	for _, file := range files {
		ids = append(ids, strings.TrimSuffix(file, ".json"))
	}

	return ids, nil
}
