package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileRotator is an io.Writer over a log file that is rotated once it
// grows past Config.MaxSize megabytes.
type FileRotator struct {
	config *Config
	mu     sync.Mutex
	file   *os.File
	size   int64

	// compressWG tracks background gzip jobs so Close can wait for them.
	compressWG sync.WaitGroup
}

// NewFileRotator opens (or creates) cfg.FilePath for appending.
func NewFileRotator(cfg *Config) (*FileRotator, error) {
	r := &FileRotator{config: cfg}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0750); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	if err := r.openFile(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRotator) openFile() error {
	file, err := os.OpenFile(r.config.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	r.file = file
	r.size = info.Size()
	return nil
}

// Write implements io.Writer.
func (r *FileRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.openFile(); err != nil {
			return 0, err
		}
	}

	if r.size > 0 && r.size+int64(len(p)) > r.maxBytes() {
		if err := r.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log: %w", err)
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *FileRotator) maxBytes() int64 {
	if r.config.MaxSize <= 0 {
		return 10 * 1024 * 1024
	}
	return r.config.MaxSize * 1024 * 1024
}

func (r *FileRotator) rotate() error {
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("close current log: %w", err)
	}
	r.file = nil

	rotated := r.backupName(time.Now())
	if err := os.Rename(r.config.FilePath, rotated); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rename log file: %w", err)
	}

	if r.config.Compress {
		r.compressWG.Add(1)
		go func() {
			defer r.compressWG.Done()
			compressFile(rotated)
		}()
	}

	if err := r.openFile(); err != nil {
		return err
	}
	r.prune()
	return nil
}

func (r *FileRotator) backupName(t time.Time) string {
	base := filepath.Base(r.config.FilePath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(filepath.Dir(r.config.FilePath),
		fmt.Sprintf("%s-%s%s", name, t.Format("20060102-150405.000"), ext))
}

// Backups lists rotated files, oldest first.
func (r *FileRotator) Backups() ([]string, error) {
	base := filepath.Base(r.config.FilePath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(r.config.FilePath), name+"-*"+ext+"*"))
	if err != nil {
		return nil, err
	}
	// The timestamp format sorts lexically.
	sort.Strings(matches)
	return matches, nil
}

func (r *FileRotator) prune() {
	if r.config.MaxBackups <= 0 {
		return
	}
	backups, err := r.Backups()
	if err != nil {
		return
	}
	for len(backups) > r.config.MaxBackups {
		os.Remove(backups[0])
		backups = backups[1:]
	}
}

func compressFile(path string) {
	input, err := os.Open(path)
	if err != nil {
		return
	}
	defer input.Close()

	output, err := os.Create(path + ".gz")
	if err != nil {
		return
	}

	gz := gzip.NewWriter(output)
	gz.Name = filepath.Base(path)

	_, err = io.Copy(gz, input)
	if cerr := gz.Close(); err == nil {
		err = cerr
	}
	if cerr := output.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path + ".gz")
		return
	}
	input.Close()
	os.Remove(path)
}

// Close waits for pending compression and closes the file.
func (r *FileRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.compressWG.Wait()
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

// Sync flushes the current file to disk.
func (r *FileRotator) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		return r.file.Sync()
	}
	return nil
}
