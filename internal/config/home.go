package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LastInput is the most recently visualized text, persisted under Home so
// that a bare "view" can resume it.
type LastInput struct {
	Text string `json:"text"`
	// UpdatedAtMs is the wall-clock timestamp of the most recent write.
	UpdatedAtMs int64 `json:"updatedAtMs,omitempty"`
}

// LoadLastInput reads the saved input. ok is false when none exists.
func LoadLastInput(home string) (input LastInput, ok bool, err error) {
	path, err := lastInputPath(home)
	if err != nil {
		return LastInput{}, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return LastInput{}, false, nil
		}
		return LastInput{}, false, err
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return LastInput{}, false, err
	}
	return input, true, nil
}

// SaveLastInput writes text atomically.
func SaveLastInput(home string, text string) error {
	if text == "" {
		return fmt.Errorf("missing text")
	}
	path, err := lastInputPath(home)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	raw, err := json.Marshal(LastInput{Text: text, UpdatedAtMs: time.Now().UnixMilli()})
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func lastInputPath(home string) (string, error) {
	if strings.TrimSpace(home) == "" {
		return "", fmt.Errorf("missing ssdeepviz home")
	}
	return filepath.Join(home, "last_input.json"), nil
}
