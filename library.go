package pixelblit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxSequences is the maximum number of sequences a Library lists.
const MaxSequences = 16

// ErrNoSequence is returned when a sequence name is not in the library.
var ErrNoSequence = errors.New("no such sequence")

// Library is a directory of sequence files.
type Library struct {
	Dir string
}

// Sequences lists the .fseq files in the directory in name order. The
// extension is matched case-insensitively and hidden files, including
// resource forks, are skipped. At most MaxSequences names are returned.
func (l Library) Sequences() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sequence directory: %w", err)
	}

	names := make([]string, 0, MaxSequences)
	for _, e := range entries {
		if len(names) == MaxSequences {
			break
		}
		if e.IsDir() || !isSequenceName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Path resolves name to a file in the library. Names that would leave the
// directory are rejected.
func (l Library) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || !isSequenceName(name) {
		return "", fmt.Errorf("%w: %q", ErrNoSequence, name)
	}

	path := filepath.Join(l.Dir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", ErrNoSequence, name)
		}
		return "", fmt.Errorf("failed to stat sequence: %w", err)
	}
	return path, nil
}

func isSequenceName(name string) bool {
	return !strings.HasPrefix(name, ".") && strings.EqualFold(filepath.Ext(name), ".fseq")
}
