package core

import (
	"fmt"
	"strings"
)

// SourceKind represents how a source produces lines.
type SourceKind string

const (
	KindFile    SourceKind = "file"    // read once, then end-of-stream
	KindFollow  SourceKind = "follow"  // last N lines, then follow
	KindJournal SourceKind = "journal" // systemd unit journal
	KindCommand SourceKind = "command" // arbitrary shell command
)

// DefaultLines is the number of trailing lines shown when following.
const DefaultLines = 10

// ParseSourceKind converts a string into a SourceKind.
func ParseSourceKind(s string) (SourceKind, error) {
	switch k := SourceKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindFile, KindFollow, KindJournal, KindCommand:
		return k, nil
	case "tail":
		return KindFollow, nil
	case "open", "cat":
		return KindFile, nil
	case "unit":
		return KindJournal, nil
	case "run", "exec":
		return KindCommand, nil
	}
	return "", fmt.Errorf("unknown source kind %q", s)
}

// Source describes one line producer.
// Target is a [user@][host:]path for files, a unit name for journals,
// or a shell command line for commands.
type Source struct {
	Kind   SourceKind `json:"kind"`
	Target string     `json:"target"`
	Lines  int        `json:"lines,omitempty"`
}

// ID returns the identity of the source.
// Format: kind:target
func (s Source) ID() string {
	return fmt.Sprintf("%s:%s", s.Kind, s.Target)
}

// TailLines returns the number of existing lines a follow or journal
// source shows before new ones. Zero shows none; negative counts are
// treated as zero. Callers building sources from user input apply
// DefaultLines themselves.
func (s Source) TailLines() int {
	return max(s.Lines, 0)
}

// Path returns the parsed target for file and follow sources.
func (s Source) Path() Path {
	return ParsePath(s.Target)
}

// ParseSourceID splits a source ID into kind and target.
func ParseSourceID(id string) (SourceKind, string, error) {
	parts := strings.SplitN(id, ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid source ID %q: expected kind:target", id)
	}
	kind, err := ParseSourceKind(parts[0])
	if err != nil {
		return "", "", fmt.Errorf("invalid source ID %q: %w", id, err)
	}
	return kind, parts[1], nil
}
