package app

import (
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/msaeedsaeedi/commander/internal/domain"
)

// ExpressionPrefix marks a command parameter that is evaluated per item
// instead of being passed to the shell verbatim.
const ExpressionPrefix = "="

// CommandSource resolves the command parameter for a given item index.
type CommandSource interface {
	Command(index int) (string, error)
}

// ItemCommandSource resolves the node's configured command for an item.
// Item fields never replace the command. A value starting with "=" is an
// expression: the rest is rendered as a text/template against the item,
// e.g. `=echo {{ .name }}`. Anything else is returned byte for byte.
type ItemCommandSource struct {
	global string
	items  []domain.Item
}

func NewItemCommandSource(global string, items []domain.Item) *ItemCommandSource {
	return &ItemCommandSource{global: global, items: items}
}

func (s *ItemCommandSource) Command(index int) (string, error) {
	expr, ok := strings.CutPrefix(s.global, ExpressionPrefix)
	if !ok {
		return s.global, nil
	}

	var item domain.Item
	if index >= 0 && index < len(s.items) {
		item = s.items[index]
	}

	tmpl, err := template.New("command").Option("missingkey=error").Parse(expr)
	if err != nil {
		return "", errors.Wrapf(err, "parsing command for item %d", index)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, map[string]any(item)); err != nil {
		return "", errors.Wrapf(err, "rendering command for item %d", index)
	}
	return sb.String(), nil
}
