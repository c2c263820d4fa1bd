package presets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/petriborg/follow/pkg/manifest"
	"github.com/petriborg/follow/pkg/providers/shell"
)

// ComposeFile is the part of a Docker Compose file the preset reads.
type ComposeFile struct {
	Name     string                    `yaml:"name"`
	Services map[string]ComposeService `yaml:"services"`
}

// ComposeService is a minimal service definition from a compose file.
type ComposeService struct {
	Image         string `yaml:"image"`
	ContainerName string `yaml:"container_name"`
}

var composeNames = []string{"compose.yaml", "compose.yml", "docker-compose.yaml", "docker-compose.yml"}

// FindComposeFile returns the first compose file in dir.
func FindComposeFile(dir string) (string, error) {
	for _, name := range composeNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no compose file in %s", dir)
}

// ParseComposeFile reads a compose file.
func ParseComposeFile(path string) (*ComposeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compose file: %w", err)
	}

	var cf ComposeFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse compose file: %w", err)
	}
	return &cf, nil
}

// ServiceNames returns the service names, sorted.
func (cf *ComposeFile) ServiceNames() []string {
	names := make([]string, 0, len(cf.Services))
	for name := range cf.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ContainerName is the container compose creates for service: its
// container_name, or <project>-<service>-1.
func (cf *ComposeFile) ContainerName(project, service string) string {
	if c := cf.Services[service].ContainerName; c != "" {
		return c
	}
	if cf.Name != "" {
		project = cf.Name
	}
	if project == "" {
		return ""
	}
	return fmt.Sprintf("%s-%s-1", project, service)
}

// GenerateCompose creates a manifest following `docker logs` of every
// service in the compose file under root. The project name defaults to
// the directory name, as compose does.
func GenerateCompose(root string) (*manifest.Manifest, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	path, err := FindComposeFile(absRoot)
	if err != nil {
		return nil, err
	}
	cf, err := ParseComposeFile(path)
	if err != nil {
		return nil, err
	}

	project := filepath.Base(absRoot)
	var sources []manifest.Source
	for _, svc := range cf.ServiceNames() {
		container := cf.ContainerName(project, svc)
		if container == "" {
			continue
		}
		sources = append(sources, manifest.Source{
			Kind:    "command",
			Command: "docker logs -f -n 10 " + shell.Quote(container),
		})
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%s: no services", path)
	}

	return &manifest.Manifest{
		Version: 1,
		Colors:  map[string]manifest.ColorDef{"orange": {SGR: "38;5;208", Short: "o"}},
		Groups: map[string]manifest.Group{
			"compose": {Sources: sources, Rules: standardRules()},
		},
	}, nil
}
