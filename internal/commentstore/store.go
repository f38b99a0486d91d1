// Package commentstore persists trajectory comments as one JSON file per
// (submission, trajectory, simulation, author). The per-author sharding keeps
// concurrent writers with different identities on disjoint files; a single
// author's file is last-write-wins. Everything else (HTTP API, MCP server)
// talks to this.
package commentstore

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileVersion is the schema version written into every comment file.
const FileVersion = 1

// Key identifies one comment thread: a single simulation run inside a
// trajectory of a submission.
type Key struct {
	Submission string
	Trajectory string
	Simulation string
}

// String renders the key in the colon-joined form stored in comment files.
func (k Key) String() string {
	return k.Submission + ":" + k.Trajectory + ":" + k.Simulation
}

// CommentEntry is one comment inside an author's file.
type CommentEntry struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Timestamp time.Time  `json:"timestamp"`
	Edited    bool       `json:"edited"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
}

// AuthorCommentFile is the durable unit: all comments one author has left on
// one simulation. Comments keep insertion order, which is not necessarily
// timestamp order.
type AuthorCommentFile struct {
	Version       int            `json:"version"`
	Author        string         `json:"author"`
	SimulationKey string         `json:"simulationKey"`
	Comments      []CommentEntry `json:"comments"`
}

// AggregatedComment is a comment annotated with its author, as returned by
// the cross-author read path. Never persisted.
type AggregatedComment struct {
	CommentEntry
	Author string `json:"author"`
}

// Store reads and writes per-author comment files under a root data
// directory. Every operation goes to disk; nothing is cached across calls.
type Store struct {
	root string
}

// Seams for tests.
var (
	timeNow    = time.Now
	generateID = uuid.NewString
)

// NewStore creates a store rooted at the given data directory. The directory
// does not need to exist yet; it is created lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// validateComponent rejects values that would escape the storage subtree when
// joined into a file path.
func validateComponent(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: empty component", ErrUnsafeKey)
	}
	if strings.ContainsAny(value, `/\`) || strings.Contains(value, "..") || value == "." {
		return fmt.Errorf("%w: %q", ErrUnsafeKey, value)
	}
	return nil
}

func (k Key) validate() error {
	for _, component := range []string{k.Submission, k.Trajectory, k.Simulation} {
		if err := validateComponent(component); err != nil {
			return err
		}
	}
	return nil
}

// commentsDir is the directory holding one subdirectory per author for a
// (submission, trajectory) pair.
func (s *Store) commentsDir(key Key) string {
	return filepath.Join(s.root, "submissions", key.Submission, "trajectories", "comments")
}

// filePath is the address of one author's comment file for a key.
func (s *Store) filePath(key Key, author string) (string, error) {
	if err := key.validate(); err != nil {
		return "", err
	}
	if err := validateComponent(author); err != nil {
		return "", err
	}
	return filepath.Join(s.commentsDir(key), author, key.Trajectory+"_"+key.Simulation+".json"), nil
}

// readFile loads and parses a comment file. Absent and unparseable files both
// come back as (nil, false): the read path must stay available even when a
// single author's file is corrupt.
func readFile(path string) (*AuthorCommentFile, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Error reading comment file %s: %v", path, err)
		}
		return nil, false
	}

	var file AuthorCommentFile
	if err := json.Unmarshal(content, &file); err != nil {
		log.Printf("Error parsing comment file %s: %v", path, err)
		return nil, false
	}
	return &file, true
}

// writeFile persists a whole comment file, creating parent directories as
// needed. Output is indented JSON so the files stay reviewable by hand.
func writeFile(path string, file *AuthorCommentFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create comment directory: %w", err)
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode comment file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write comment file: %w", err)
	}
	return nil
}

// Load returns one author's comment file for a key. ok is false when the
// author has no (readable) file, which is a normal outcome, not an error.
func (s *Store) Load(key Key, author string) (*AuthorCommentFile, bool, error) {
	path, err := s.filePath(key, author)
	if err != nil {
		return nil, false, err
	}
	file, ok := readFile(path)
	return file, ok, nil
}

// Append adds a new comment to the author's file for a key, creating the file
// on first use. Returns the created entry.
func (s *Store) Append(key Key, author, text string) (*CommentEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	path, err := s.filePath(key, author)
	if err != nil {
		return nil, err
	}

	file, ok := readFile(path)
	if !ok {
		file = &AuthorCommentFile{
			Version:       FileVersion,
			Author:        author,
			SimulationKey: key.String(),
			Comments:      []CommentEntry{},
		}
	}

	entry := CommentEntry{
		ID:        generateID(),
		Text:      text,
		Timestamp: timeNow().UTC(),
		Edited:    false,
	}
	file.Comments = append(file.Comments, entry)

	if err := writeFile(path, file); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Edit replaces the text of an existing comment, marking it edited. Returns
// ErrNotFound when the author has no file for the key or the id is absent.
func (s *Store) Edit(key Key, author, commentID, text string) (*CommentEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	path, err := s.filePath(key, author)
	if err != nil {
		return nil, err
	}

	file, ok := readFile(path)
	if !ok {
		return nil, ErrNotFound
	}

	for i := range file.Comments {
		if file.Comments[i].ID != commentID {
			continue
		}
		editedAt := timeNow().UTC()
		file.Comments[i].Text = text
		file.Comments[i].Edited = true
		file.Comments[i].EditedAt = &editedAt

		if err := writeFile(path, file); err != nil {
			return nil, err
		}
		entry := file.Comments[i]
		return &entry, nil
	}
	return nil, ErrNotFound
}

// Delete removes a comment from the author's file. When the last comment goes,
// the file itself is removed; a failed removal is tolerated and the stale
// empty file reads as zero comments afterwards.
func (s *Store) Delete(key Key, author, commentID string) error {
	path, err := s.filePath(key, author)
	if err != nil {
		return err
	}

	file, ok := readFile(path)
	if !ok {
		return ErrNotFound
	}

	index := -1
	for i := range file.Comments {
		if file.Comments[i].ID == commentID {
			index = i
			break
		}
	}
	if index == -1 {
		return ErrNotFound
	}

	file.Comments = append(file.Comments[:index], file.Comments[index+1:]...)

	if len(file.Comments) == 0 {
		if err := os.Remove(path); err != nil {
			log.Printf("Failed to remove empty comment file %s: %v", path, err)
		}
		return nil
	}
	return writeFile(path, file)
}
