// Package config loads a node definition: the node parameters as the
// workflow engine configured them plus the input items to run against.
package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/msaeedsaeedi/commander/internal/domain"
)

// NodeFile is the on-disk form of a node and its input items.
type NodeFile struct {
	Name       string        `yaml:"name"`
	Parameters Parameters    `yaml:"parameters"`
	Items      []domain.Item `yaml:"items"`
}

// Parameters mirrors the node's parameter panel. Pointers distinguish an
// omitted value from an explicit false.
type Parameters struct {
	RunOnce        *bool  `yaml:"runOnce"`
	HideWindow     *bool  `yaml:"hideWindow"`
	ExecMode       string `yaml:"execMode"`
	Command        string `yaml:"command"`
	ContinueOnFail *bool  `yaml:"continueOnFail"`
	Split          string `yaml:"split"`
}

// Load reads a node file from path.
func Load(path string) (*NodeFile, error) {
	if path == "" {
		return nil, errors.New("node file path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading node file %s", path)
	}
	nf, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "node file %s", path)
	}
	return nf, nil
}

func Parse(data []byte) (*NodeFile, error) {
	var nf NodeFile
	if err := yaml.Unmarshal(data, &nf); err != nil {
		return nil, errors.Wrap(err, "decoding yaml")
	}
	return &nf, nil
}

// NodeConfig resolves the parameters into a NodeConfig with defaults applied.
func (nf *NodeFile) NodeConfig() *domain.NodeConfig {
	cfg := Defaults()
	if nf.Name != "" {
		cfg.Name = nf.Name
	}
	p := nf.Parameters
	if p.RunOnce != nil {
		cfg.RunOnce = *p.RunOnce
	}
	if p.HideWindow != nil {
		cfg.HideWindow = *p.HideWindow
	}
	if p.ContinueOnFail != nil {
		cfg.ContinueOnFail = *p.ContinueOnFail
	}
	if p.ExecMode != "" {
		cfg.ExecMode = domain.ExecMode(p.ExecMode)
	}
	if p.Split != "" {
		cfg.Split = domain.SplitMode(p.Split)
	}
	cfg.Command = p.Command
	return cfg
}

// Defaults returns the parameter defaults of the node.
func Defaults() *domain.NodeConfig {
	return &domain.NodeConfig{
		Name:     domain.DefaultNodeName,
		RunOnce:  true,
		ExecMode: domain.DefaultExecMode,
		Split:    domain.DefaultSplit,
		Format:   domain.FormatJSON,
	}
}

// BlankItems returns n empty input items.
func BlankItems(n int) []domain.Item {
	items := make([]domain.Item, n)
	for i := range items {
		items[i] = domain.Item{}
	}
	return items
}

// LoadItems reads a JSON array of item objects. Each element may either be
// the item itself or wrapped as {"json": {...}} the way the engine emits it.
func LoadItems(path string) ([]domain.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading items file %s", path)
	}
	items, err := ParseItems(data)
	if err != nil {
		return nil, errors.Wrapf(err, "items file %s", path)
	}
	return items, nil
}

func ParseItems(data []byte) ([]domain.Item, error) {
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decoding items")
	}

	items := make([]domain.Item, 0, len(raw))
	for _, entry := range raw {
		if inner, ok := entry["json"].(map[string]any); ok && len(entry) <= 2 {
			items = append(items, domain.Item(inner))
			continue
		}
		items = append(items, domain.Item(entry))
	}
	return items, nil
}
