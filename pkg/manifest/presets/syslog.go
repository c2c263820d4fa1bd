package presets

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/petriborg/follow/pkg/manifest"
)

// Available lists the preset names accepted by Generate.
var Available = []string{"compose", "syslog"}

// DefaultRoot is where a preset looks when no root is given.
func DefaultRoot(name string) string {
	if name == "compose" {
		return "."
	}
	return "/"
}

// Generate builds the named preset.
func Generate(name string, root string) (*manifest.Manifest, error) {
	if root == "" {
		root = DefaultRoot(name)
	}
	switch name {
	case "syslog":
		return GenerateSyslog(root)
	case "compose":
		return GenerateCompose(root)
	default:
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, Available)
	}
}

// GenerateSyslog creates a manifest following the system logs found under
// root (normally "/"). Every group gets the standard severity rules.
func GenerateSyslog(root string) (*manifest.Manifest, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	m := &manifest.Manifest{
		Version: 1,
		Colors: map[string]manifest.ColorDef{
			"orange": {SGR: "38;5;208", Short: "o"},
		},
		Groups: make(map[string]manifest.Group),
	}

	rules := standardRules()

	// System log, whichever flavour the distribution uses
	for _, name := range []string{"syslog", "messages"} {
		path := filepath.Join(absRoot, "var", "log", name)
		if _, err := os.Stat(path); err == nil {
			m.Groups["syslog"] = manifest.Group{
				Sources: []manifest.Source{{Kind: "follow", Path: path, Lines: lineCount(20)}},
				Rules:   rules,
			}
			break
		}
	}

	// Auth log
	for _, name := range []string{"auth.log", "secure"} {
		path := filepath.Join(absRoot, "var", "log", name)
		if _, err := os.Stat(path); err == nil {
			m.Groups["auth"] = manifest.Group{
				Sources: []manifest.Source{{Kind: "follow", Path: path}},
				Rules: append([]manifest.Rule{
					{Kind: "highlight", Pattern: `(?i)invalid user|authentication failure`, Color: "yellow"},
				}, rules...),
			}
			break
		}
	}

	// Journal units, only when journalctl is installed
	if _, err := exec.LookPath("journalctl"); err == nil {
		var sources []manifest.Source
		for _, units := range [][]string{
			{"sshd.service", "ssh.service"},
			{"cron.service", "crond.service"},
			{"nginx.service"},
		} {
			for _, unit := range units {
				if unitExists(absRoot, unit) {
					sources = append(sources, manifest.Source{Kind: "journal", Unit: unit})
					break
				}
			}
		}
		if len(sources) > 0 {
			sort.Slice(sources, func(i, j int) bool { return sources[i].Unit < sources[j].Unit })
			m.Groups["journal"] = manifest.Group{Sources: sources, Rules: rules}
		}
	}

	if len(m.Groups) == 0 {
		return nil, fmt.Errorf("no system logs found under %s", absRoot)
	}
	return m, nil
}

// standardRules highlights severities and the syslog timestamp. They use
// the preset's orange color.
func standardRules() []manifest.Rule {
	return []manifest.Rule{
		{Kind: "highlight", Pattern: `(?i)\b(error|fail(ed|ure)?|fatal|panic)\b`, Color: "red"},
		{Kind: "highlight", Pattern: `(?i)\bwarn(ing)?\b`, Color: "orange"},
		{Kind: "highlight", Pattern: `^\w{3} [ \d]\d \d\d:\d\d:\d\d`, Color: "darkgray"},
	}
}

// unitExists checks if a systemd unit file is installed.
func unitExists(root, unit string) bool {
	for _, dir := range []string{"etc/systemd/system", "lib/systemd/system", "usr/lib/systemd/system"} {
		if _, err := os.Stat(filepath.Join(root, dir, unit)); err == nil {
			return true
		}
	}
	return false
}

func lineCount(n int) *int { return &n }
