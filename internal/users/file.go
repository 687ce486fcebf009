package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps users as a JSON array in a single file. Every operation
// holds mu for its whole read-check-write cycle, so concurrent registrations
// of the same email cannot both succeed within one process.
type FileStore struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on first write.
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	return &FileStore{path: path, now: time.Now}, nil
}

func (s *FileStore) EmailExists(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return false, err
	}
	return find(all, email) >= 0, nil
}

func (s *FileStore) CreateUser(ctx context.Context, u *User) (bool, error) {
	if !u.valid() {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return false, err
	}
	if find(all, u.Email) >= 0 {
		return false, nil
	}

	var maxID int64
	for _, existing := range all {
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}

	u.ID = maxID + 1
	u.Email = normalize(u.Email)
	u.CreatedAt = s.now().UTC()
	all = append(all, *u)

	if err := s.save(all); err != nil {
		return false, err
	}
	return true, nil
}

func (s *FileStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}
	i := find(all, email)
	if i < 0 {
		return nil, ErrNotFound
	}
	u := all[i]
	return &u, nil
}

func (s *FileStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

func (s *FileStore) ListEmails(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(all))
	for _, u := range all {
		emails = append(emails, u.Email)
	}
	return emails, nil
}

func (s *FileStore) UpdatePassword(ctx context.Context, email, digest string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return false, err
	}
	i := find(all, email)
	if i < 0 {
		return false, nil
	}
	all[i].PasswordDigest = digest
	if err := s.save(all); err != nil {
		return false, err
	}
	return true, nil
}

// Ping checks that the file is readable (or not yet created).
func (s *FileStore) Ping(ctx context.Context) error {
	_, err := os.Stat(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// load must be called with mu held. A missing or empty file is an empty list.
func (s *FileStore) load() ([]User, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var all []User
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("decode users file: %w", err)
	}
	return all, nil
}

// save must be called with mu held. It writes to a temp file and renames it
// over the original so readers never see a partial document.
func (s *FileStore) save(all []User) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".users-*.json")
	if err != nil {
		return fmt.Errorf("write users file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write users file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write users file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write users file: %w", err)
	}
	return nil
}

func find(all []User, email string) int {
	want := normalize(email)
	for i, u := range all {
		if normalize(u.Email) == want {
			return i
		}
	}
	return -1
}
