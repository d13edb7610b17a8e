// Package credstore manages the pipe-delimited credential whitelist
// file that backs token authentication. The file holds one user per
// line in seven fixed-width columns:
//
//	username | token | groups | name | created_at | last_login | is_active
package credstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// TimeFormat is the on-disk timestamp layout, kept as-is for
// compatibility with files written by the previous backend.
const TimeFormat = "2006-01-02: 15:04:05"

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserInactive  = errors.New("user is inactive")
	ErrLoginExpired  = errors.New("last login too old, re-login required")
	ErrInvalidColumn = errors.New("invalid column name")
)

// Columns updatable through UpdateField, in file order.
var allowedColumns = []string{"username", "token", "groups", "name", "created_at", "last_login", "is_active"}

type User struct {
	Username  string
	Token     string
	Groups    []string
	Name      string
	CreatedAt string
	LastLogin string
	Active    bool
}

type Store struct {
	mu    sync.Mutex
	path  string
	ttl   time.Duration
	cache *gocache.Cache

	now func() time.Time
}

func New(path string, ttl time.Duration) *Store {
	return &Store{
		path:  path,
		ttl:   ttl,
		cache: gocache.New(time.Minute, 5*time.Minute),
		now:   time.Now,
	}
}

func formatLine(u *User) string {
	active := 0
	if u.Active {
		active = 1
	}
	return fmt.Sprintf("%-20s | %-50s | %-20s | %-20s | %-30s | %-30s | %-5d\n",
		u.Username, u.Token, strings.Join(u.Groups, ","), u.Name,
		u.CreatedAt, u.LastLogin, active)
}

func parseLine(line string) (*User, bool) {
	clean := strings.TrimSpace(line)
	if clean == "" || !strings.Contains(clean, "|") {
		return nil, false
	}
	cols := strings.Split(clean, "|")
	if len(cols) != 7 {
		return nil, false
	}
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}

	u := &User{
		Username:  cols[0],
		Token:     cols[1],
		Name:      cols[3],
		CreatedAt: cols[4],
		LastLogin: cols[5],
		Active:    cols[6] == "1",
	}
	if cols[2] != "" {
		u.Groups = strings.Split(cols[2], ",")
	} else {
		u.Groups = []string{}
	}
	return u, true
}

func (s *Store) readAll() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	return strings.SplitAfter(string(data), "\n"), nil
}

// Get returns the user matching token, reading through the cache.
func (s *Store) Get(token string) (*User, error) {
	if cached, ok := s.cache.Get(token); ok {
		u := cached.(User)
		return &u, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(token)
}

func (s *Store) getLocked(token string) (*User, error) {
	lines, err := s.readAll()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	for _, line := range lines {
		u, ok := parseLine(line)
		if ok && u.Token == token {
			s.cache.SetDefault(token, *u)
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

// Validate checks that token maps to an active user whose last login is
// within the store's TTL.
func (s *Store) Validate(token string) error {
	u, err := s.Get(token)
	if err != nil {
		return err
	}
	if !u.Active {
		return ErrUserInactive
	}

	last, err := time.ParseInLocation(TimeFormat, u.LastLogin, time.Local)
	if err != nil {
		return fmt.Errorf("parse last_login for %s: %w", u.Username, err)
	}
	if s.now().After(last.Add(s.ttl)) {
		return ErrLoginExpired
	}
	return nil
}

// AddOrUpdate appends a new user record or, for an existing token,
// refreshes name and last_login. Deactivated accounts are never
// reactivated here; that stays a manual operation on the file.
func (s *Store) AddOrUpdate(token, username string, groups []string, name string) (*User, error) {
	if token == "" || username == "" || name == "" {
		return nil, errors.New("username, token and name are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nowStr := s.now().Format(TimeFormat)

	if _, err := s.getLocked(token); err == nil {
		if err := s.updateFieldLocked(token, "name", name); err != nil {
			return nil, err
		}
		if err := s.updateFieldLocked(token, "last_login", nowStr); err != nil {
			return nil, err
		}
		return s.getLocked(token)
	}

	u := &User{
		Username:  username,
		Token:     token,
		Groups:    groups,
		Name:      name,
		CreatedAt: nowStr,
		LastLogin: nowStr,
		Active:    true,
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := f.WriteString(formatLine(u)); err != nil {
		return nil, err
	}

	s.cache.Delete(token)
	return u, nil
}

// UpdateField rewrites a single column of the record matching token.
func (s *Store) UpdateField(token, column, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateFieldLocked(token, column, value)
}

func (s *Store) updateFieldLocked(token, column, value string) error {
	idx := -1
	for i, c := range allowedColumns {
		if c == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidColumn, column)
	}

	switch column {
	case "is_active":
		if value != "0" && value != "1" {
			return fmt.Errorf("is_active must be 0 or 1, got %q", value)
		}
	case "created_at", "last_login":
		if _, err := time.ParseInLocation(TimeFormat, value, time.Local); err != nil {
			return fmt.Errorf("%s must match %q: %w", column, TimeFormat, err)
		}
	}

	lines, err := s.readAll()
	if err != nil {
		if os.IsNotExist(err) {
			return ErrUserNotFound
		}
		return err
	}

	found := false
	var b strings.Builder
	for _, line := range lines {
		u, ok := parseLine(line)
		if !ok || u.Token != token {
			b.WriteString(line)
			continue
		}

		found = true
		cols := []string{
			u.Username, u.Token, strings.Join(u.Groups, ","), u.Name,
			u.CreatedAt, u.LastLogin, boolTo01(u.Active),
		}
		cols[idx] = value

		updated := &User{
			Username:  cols[0],
			Token:     cols[1],
			Name:      cols[3],
			CreatedAt: cols[4],
			LastLogin: cols[5],
			Active:    cols[6] == "1",
		}
		if cols[2] != "" {
			updated.Groups = strings.Split(cols[2], ",")
		}
		b.WriteString(formatLine(updated))
	}

	if !found {
		return ErrUserNotFound
	}

	if err := os.WriteFile(s.path, []byte(b.String()), 0o644); err != nil {
		return err
	}
	s.cache.Delete(token)
	return nil
}

func boolTo01(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
