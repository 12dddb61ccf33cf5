package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/edalab/edachat/internal/utils"
)

const sessionFileName = "session.json"

// Session is one persisted conversation: metadata plus the full transcript.
// Each session owns a directory that also holds interpreter scratch files
// (exported figures, recall index).
type Session struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Provider  string      `json:"provider"`
	Model     string      `json:"model"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	History   *Transcript `json:"transcript"`

	rootDir string
}

// NewSession constructs an in-memory session rooted under sessionsDir.
// Call Save to persist.
func NewSession(sessionsDir, name, provider, model string) *Session {
	id := uuid.NewString()
	return &Session{
		ID:        id,
		Name:      name,
		Provider:  provider,
		Model:     model,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		History:   &Transcript{},
		rootDir:   filepath.Join(sessionsDir, id),
	}
}

// LoadSession reads session.json from the given session directory.
func LoadSession(dir string) (*Session, error) {
	path := filepath.Join(dir, sessionFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("session not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if s.History == nil {
		s.History = &Transcript{}
	}
	s.rootDir = dir
	return &s, nil
}

// RootDir returns the session's on-disk directory.
func (s *Session) RootDir() string { return s.rootDir }

// Transcript returns the session's transcript, never nil.
func (s *Session) Transcript() *Transcript {
	if s.History == nil {
		s.History = &Transcript{}
	}
	return s.History
}

// Save writes session.json atomically, creating the directory if needed.
func (s *Session) Save() error {
	if s.rootDir == "" {
		return errors.New("session root directory not set")
	}
	if err := utils.EnsureDir(s.rootDir); err != nil {
		return fmt.Errorf("ensure session dir: %w", err)
	}
	s.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(s)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(s.rootDir, sessionFileName), data)
}

// Delete removes the session directory and everything in it.
func (s *Session) Delete() error {
	if s.rootDir == "" {
		return errors.New("session root directory not set")
	}
	return os.RemoveAll(s.rootDir)
}

// SessionInfo is the listing view of a persisted session.
type SessionInfo struct {
	ID        string
	Name      string
	Model     string
	Turns     int
	UpdatedAt time.Time
	Dir       string
}

// ListSessions scans sessionsDir for persisted sessions, newest first.
// Unreadable entries are skipped.
func ListSessions(sessionsDir string) ([]SessionInfo, error) {
	entries, err := os.ReadDir(sessionsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}
	var out []SessionInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(sessionsDir, e.Name())
		s, err := LoadSession(dir)
		if err != nil {
			continue
		}
		out = append(out, SessionInfo{
			ID:        s.ID,
			Name:      s.Name,
			Model:     s.Model,
			Turns:     len(s.Transcript().Turns),
			UpdatedAt: s.UpdatedAt,
			Dir:       dir,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// FindSession resolves an id or unique id prefix to a session directory.
func FindSession(sessionsDir, idOrPrefix string) (*Session, error) {
	infos, err := ListSessions(sessionsDir)
	if err != nil {
		return nil, err
	}
	var match *SessionInfo
	for i := range infos {
		if infos[i].ID == idOrPrefix {
			match = &infos[i]
			break
		}
		if len(idOrPrefix) >= 4 && len(infos[i].ID) >= len(idOrPrefix) && infos[i].ID[:len(idOrPrefix)] == idOrPrefix {
			if match != nil {
				return nil, fmt.Errorf("session id prefix %q is ambiguous", idOrPrefix)
			}
			match = &infos[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("session %q not found", idOrPrefix)
	}
	return LoadSession(match.Dir)
}
