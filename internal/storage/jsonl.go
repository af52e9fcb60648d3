package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ammScope/internal/model"
)

// Line kinds written by JsonlStorage.
const (
	KindRun      = "run"
	KindSnapshot = "snapshot"
	KindSwap     = "swap"
)

// Line is one JSONL entry. Data holds a RunRecord, SnapshotRecord or
// SwapRecord depending on Kind.
type Line struct {
	Kind  string          `json:"kind"`
	RunID string          `json:"run_id"`
	Data  json.RawMessage `json:"data"`
}

// JsonlStorage appends run records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

func (s *JsonlStorage) PutRun(_ context.Context, run model.RunRecord) error {
	line, err := newLine(KindRun, run.RunID, run)
	if err != nil {
		return err
	}
	return s.appendLines([]Line{line})
}

// PutSnapshotBatch appends a batch of snapshots as JSON lines.
func (s *JsonlStorage) PutSnapshotBatch(_ context.Context, snapshots []model.SnapshotRecord) error {
	lines := make([]Line, 0, len(snapshots))
	for _, snap := range snapshots {
		line, err := newLine(KindSnapshot, snap.RunID, snap)
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}
	return s.appendLines(lines)
}

// PutSwapBatch appends a batch of swap records as JSON lines.
func (s *JsonlStorage) PutSwapBatch(_ context.Context, runID string, swaps []model.SwapRecord) error {
	lines := make([]Line, 0, len(swaps))
	for _, swap := range swaps {
		line, err := newLine(KindSwap, runID, swap)
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}
	return s.appendLines(lines)
}

func newLine(kind, runID string, v any) (Line, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Line{}, fmt.Errorf("marshal %s record: %w", kind, err)
	}
	return Line{Kind: kind, RunID: runID, Data: data}, nil
}

func (s *JsonlStorage) appendLines(lines []Line) error {
	if len(lines) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, line := range lines {
		if err := encoder.Encode(line); err != nil {
			return fmt.Errorf("write %s line: %w", line.Kind, err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
