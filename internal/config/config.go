// Package config holds the account identifier and session cookie,
// resolving them with flag > env > file precedence through koanf's env
// and file providers, and persisting updates back to
// the data directory with an advisory file lock and an atomic
// write-temp-then-rename.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/gofrs/flock"
	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/xmflabs/xmf/internal/domain"
)

// FileName is the credential file's name under the data directory. It is
// always written back as JSON (a valid subset of the JSON5 the README
// advertises); YAML is also accepted on read.
const FileName = "config.json5"

// Store reads and writes the credential file in a data directory.
type Store struct {
	dataDir string
}

// NewStore returns a Store rooted at dataDir.
func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

func (s *Store) path() string {
	return filepath.Join(s.dataDir, FileName)
}

func (s *Store) altYAMLPath() string {
	return filepath.Join(s.dataDir, "config.yaml")
}

// Resolved holds the CLI flag overrides, captured once at process start
// and passed by value thereafter; Load layers them over the environment
// and the file, which it re-reads on every call.
type Resolved struct {
	FlagAccount string
	FlagCookie  string
}

// Load resolves the effective credential: flag > env (XMF_ACCOUNT,
// XMF_COOKIE) > file > empty.
func (s *Store) Load(override Resolved) (domain.Credential, error) {
	fromFile, err := s.readFile()
	if err != nil {
		return domain.Credential{}, err
	}

	k := koanf.New(".")
	_ = k.Load(env.Provider("XMF_", ".", func(s string) string {
		switch s {
		case "XMF_ACCOUNT":
			return "account"
		case "XMF_COOKIE":
			return "cookie"
		default:
			return s
		}
	}), nil)

	cred := fromFile
	if v := k.String("account"); v != "" {
		cred.Account = v
	}
	if v := k.String("cookie"); v != "" {
		cred.Cookie = v
	}

	if override.FlagAccount != "" {
		cred.Account = override.FlagAccount
	}
	if override.FlagCookie != "" {
		cred.Cookie = domain.NormalizeHallticket(override.FlagCookie)
	}

	return cred, nil
}

func (s *Store) readFile() (domain.Credential, error) {
	k := koanf.New(".")

	if _, err := os.Stat(s.path()); err == nil {
		if err := k.Load(file.Provider(s.path()), kjson.Parser()); err != nil {
			return domain.Credential{}, &domain.ConfigError{Reason: fmt.Sprintf("parsing %s: %v", s.path(), err)}
		}
	} else if _, err := os.Stat(s.altYAMLPath()); err == nil {
		if err := k.Load(file.Provider(s.altYAMLPath()), kyaml.Parser()); err != nil {
			return domain.Credential{}, &domain.ConfigError{Reason: fmt.Sprintf("parsing %s: %v", s.altYAMLPath(), err)}
		}
	} else {
		return domain.Credential{}, nil
	}

	return domain.Credential{
		Account: k.String("account"),
		Cookie:  k.String("cookie"),
	}, nil
}

// Update applies mutate to the current on-disk credential under an
// advisory file lock and writes the result back atomically. On Windows
// the lock is skipped; concurrent writers to the same data directory are
// not supported there.
func (s *Store) Update(mutate func(*domain.Credential)) (domain.Credential, error) {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return domain.Credential{}, &domain.ConfigError{Reason: err.Error()}
	}

	var unlock func()
	if runtime.GOOS != "windows" {
		lock := flock.New(filepath.Join(s.dataDir, ".config.lock"))
		if err := lock.Lock(); err != nil {
			return domain.Credential{}, &domain.ConfigError{Reason: fmt.Sprintf("locking config: %v", err)}
		}
		unlock = func() { _ = lock.Unlock() }
		defer unlock()
	}

	current, err := s.readFile()
	if err != nil {
		return domain.Credential{}, err
	}

	mutate(&current)

	if err := s.writeAtomic(current); err != nil {
		return domain.Credential{}, err
	}
	return current, nil
}

func (s *Store) writeAtomic(cred domain.Credential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return &domain.ConfigError{Reason: err.Error()}
	}

	tmp, err := os.CreateTemp(s.dataDir, ".config-*.tmp")
	if err != nil {
		return &domain.ConfigError{Reason: err.Error()}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &domain.ConfigError{Reason: err.Error()}
	}
	if err := tmp.Close(); err != nil {
		return &domain.ConfigError{Reason: err.Error()}
	}

	if err := os.Rename(tmpPath, s.path()); err != nil {
		return &domain.ConfigError{Reason: err.Error()}
	}
	return nil
}
