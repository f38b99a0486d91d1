package commentstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ListAll merges every author's comments for a key into one sequence sorted
// ascending by timestamp. Authors with absent or unreadable files contribute
// nothing. Ties keep enumeration order: os.ReadDir lists author directories
// sorted by name, and each file's own insertion order is preserved.
func (s *Store) ListAll(key Key) ([]AggregatedComment, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}

	dir := s.commentsDir(key)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			// No comments subtree yet means zero comments, not an error.
			return []AggregatedComment{}, nil
		}
		return nil, fmt.Errorf("failed to list comments directory: %w", err)
	}

	fileName := key.Trajectory + "_" + key.Simulation + ".json"
	comments := []AggregatedComment{}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		author := entry.Name()
		file, ok := readFile(filepath.Join(dir, author, fileName))
		if !ok {
			continue
		}

		// The recorded author wins; the directory name is the fallback.
		if file.Author != "" {
			author = file.Author
		}
		for _, comment := range file.Comments {
			comments = append(comments, AggregatedComment{CommentEntry: comment, Author: author})
		}
	}

	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].Timestamp.Before(comments[j].Timestamp)
	})

	return comments, nil
}
