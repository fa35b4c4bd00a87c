package cart

import (
	"encoding/json"
	"fmt"
	"os"
)

// Storage persists the cart as a single serialized blob, rehydrated verbatim.
// There is no schema versioning.
type Storage interface {
	Load() ([]Line, error)
	Save(lines []Line) error
}

// FileStorage keeps the cart snapshot as one JSON file under a fixed path.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Load() ([]Line, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cart snapshot: %w", err)
	}
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("failed to decode cart snapshot: %w", err)
	}
	return lines, nil
}

func (f *FileStorage) Save(lines []Line) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write cart snapshot: %w", err)
	}
	return nil
}
