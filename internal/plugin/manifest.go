package plugin

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Go has no dynamic module import, so plugins are discovered as YAML
// manifests whose handler field names an entry in a HandlerResolver the
// embedding application registers. The manifest carries everything else a
// plugin declares: name, command aliases, category, access flags.

// HandlerResolver maps a manifest's handler name to an executable Handler.
type HandlerResolver interface {
	ResolveHandler(name string) (Handler, bool)
}

// HandlerMap is the simplest HandlerResolver.
type HandlerMap map[string]Handler

// ResolveHandler implements HandlerResolver.
func (m HandlerMap) ResolveHandler(name string) (Handler, bool) {
	h, ok := m[name]
	return h, ok
}

// StringList accepts either a YAML scalar or a sequence, so a manifest may
// declare command as one alias or a list.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var one string
		if err := node.Decode(&one); err != nil {
			return err
		}
		*s = StringList{one}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return err
		}
		*s = StringList(many)
		return nil
	default:
		return fmt.Errorf("command: expected string or list, got yaml kind %d", node.Kind)
	}
}

// Manifest is one plugin declaration file.
type Manifest struct {
	Name        string     `yaml:"name"`
	Command     StringList `yaml:"command"`
	Commands    StringList `yaml:"commands"`
	Category    string     `yaml:"category"`
	Description string     `yaml:"description"`
	Owner       bool       `yaml:"owner"`
	Group       bool       `yaml:"group"`
	Private     bool       `yaml:"private"`
	Admin       bool       `yaml:"admin"`
	BotAdmin    bool       `yaml:"botAdmin"`
	Handler     string     `yaml:"handler"`
}

// LoadFile loads a single manifest file and registers it. Returns nil (and
// logs) on any validation or resolution failure.
func (r *Registry) LoadFile(path string, resolver HandlerResolver) *Plugin {
	data, err := os.ReadFile(path)
	if err != nil {
		r.log.Errorf("read %s: %v", path, err)
		return nil
	}

	var man Manifest
	if err := yaml.Unmarshal(data, &man); err != nil {
		r.log.Errorf("parse %s: %v", path, err)
		return nil
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	handlerName := man.Handler
	if handlerName == "" {
		handlerName = man.Name
	}
	if handlerName == "" {
		handlerName = base
	}

	var exec Handler
	if resolver != nil {
		exec, _ = resolver.ResolveHandler(handlerName)
	}
	if exec == nil {
		r.log.Errorf("skipping %s: no handler registered for %q", path, handlerName)
		return nil
	}

	commands := man.Command
	if len(commands) == 0 {
		commands = man.Commands
	}

	return r.load(Spec{
		Name:        man.Name,
		Commands:    commands,
		Category:    man.Category,
		Description: man.Description,
		Owner:       man.Owner,
		Group:       man.Group,
		Private:     man.Private,
		Admin:       man.Admin,
		BotAdmin:    man.BotAdmin,
		Exec:        exec,
	}, base)
}

// LoadAll recursively discovers manifest files under dir and loads each.
// A missing directory is a warning, not an error. Returns the number of
// plugins loaded successfully and marks the registry loaded.
func (r *Registry) LoadAll(dir string, resolver HandlerResolver) int {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		r.log.Warnf("plugin directory not found: %s", dir)
		return 0
	}

	var files []string
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.log.Warnf("walk %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})

	loaded := 0
	for _, f := range files {
		if r.LoadFile(f, resolver) != nil {
			loaded++
		}
	}

	r.MarkLoaded()
	r.log.Infof("loaded %d/%d plugins from %s", loaded, len(files), dir)
	return loaded
}
