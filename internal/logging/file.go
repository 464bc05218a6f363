// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultMaxFileSize is the size at which the log file rotates.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// RotatingFile is an append-only 0600 log file that rotates by size.
type RotatingFile struct {
	path    string
	file    *os.File
	mu      sync.Mutex
	maxSize int64
	now     func() time.Time
}

// OpenRotatingFile opens path for appending, creating parent
// directories with 0700.
func OpenRotatingFile(path string, maxSize int64) (*RotatingFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &RotatingFile{path: path, file: file, maxSize: maxSize, now: time.Now}, nil
}

// Write appends p, rotating first when the file has reached maxSize.
func (f *RotatingFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return 0, os.ErrClosed
	}
	if err := f.checkRotationLocked(); err != nil {
		return 0, err
	}
	return f.file.Write(p)
}

// Path returns the active log file path.
func (f *RotatingFile) Path() string {
	return f.path
}

// Rotate moves the current file aside with a timestamp suffix.
func (f *RotatingFile) Rotate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rotateLocked()
}

// Close closes the file. Later writes fail with os.ErrClosed.
func (f *RotatingFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

func (f *RotatingFile) checkRotationLocked() error {
	if f.maxSize <= 0 {
		return nil
	}
	info, err := f.file.Stat()
	if err != nil {
		return nil
	}
	if info.Size() >= f.maxSize {
		return f.rotateLocked()
	}
	return nil
}

func (f *RotatingFile) rotateLocked() error {
	if f.file == nil {
		return nil
	}
	if err := f.file.Close(); err != nil {
		return fmt.Errorf("failed to close log for rotation: %w", err)
	}

	timestamp := f.now().Format("20060102_150405.000")
	ext := filepath.Ext(f.path)
	base := strings.TrimSuffix(f.path, ext)
	rotatedPath := fmt.Sprintf("%s_%s%s", base, timestamp, ext)

	if err := os.Rename(f.path, rotatedPath); err != nil {
		f.file, _ = os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		return fmt.Errorf("failed to rotate log: %w", err)
	}

	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create new log after rotation: %w", err)
	}
	f.file = file
	return nil
}
