// Package template renders message templates against lead and run data.
package template

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"text/template"
	"text/template/parse"
	"time"

	"github.com/dukex/leadflow/pkg/models"
)

var (
	action = regexp.MustCompile(`\{\{.*?\}\}`)
	// bareReference matches authoring shorthand such as lead.name inside an action.
	bareReference = regexp.MustCompile(`(^\{\{-?|[\s(])(lead|contact|workflow|enrollment)\.`)
)

// contactToken matches the recipient placeholders that stand for the lead's own contact.
var contactToken = regexp.MustCompile(`^\{\{\s*\.?(?:(?:lead|contact)\.)?(email|phone)\s*\}\}$`)

// Normalize rewrites shorthand references into text/template field access.
func Normalize(input string) string {
	return action.ReplaceAllStringFunc(input, func(match string) string {
		return bareReference.ReplaceAllString(match, "$1.$2.")
	})
}

// NeedsTemplating reports whether input contains template actions.
func NeedsTemplating(input string) bool {
	return strings.Contains(input, "{{")
}

// ContactToken reports which lead contact field a recipient placeholder refers to.
// It returns "email" or "phone".
func ContactToken(value string) (string, bool) {
	match := contactToken.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return "", false
	}

	return match[1], true
}

func RenderWithContext(input string, executionCtx *models.ExecutionContext) (string, error) {
	return Render(input, executionCtx.TemplateData())
}

// ErrUnknownReference means a template refers to data that is never
// available when a message is rendered.
var ErrUnknownReference = errors.New("unknown template reference")

// References lists the fields each root of the template data exposes.
var References = map[string][]string{
	"lead":       {"name", "email", "phone"},
	"contact":    {"name", "email", "phone"},
	"workflow":   {"id", "name"},
	"enrollment": {"id"},
}

var funcs = template.FuncMap{
	"now": func() string {
		return time.Now().UTC().Format(time.RFC3339)
	},
	"default": func(fallback, value any) any {
		if s, ok := value.(string); ok && s == "" {
			return fallback
		}

		if value == nil {
			return fallback
		}

		return value
	},
	"firstName": func(name any) string {
		s, _ := name.(string)

		first, _, _ := strings.Cut(strings.TrimSpace(s), " ")

		return first
	},
}

func parseTemplate(input string) (*template.Template, error) {
	tmpl, err := template.New("message").Option("missingkey=error").Funcs(funcs).Parse(Normalize(input))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", input, err)
	}

	return tmpl, nil
}

// Check parses input the way Render does and rejects references outside
// References, so a bad template fails before any message is sent.
func Check(input string) error {
	if !NeedsTemplating(input) {
		return nil
	}

	tmpl, err := parseTemplate(input)
	if err != nil {
		return err
	}

	for _, name := range tmpl.Templates() {
		if name.Tree == nil {
			continue
		}

		err = checkNode(name.Tree.Root)
		if err != nil {
			return fmt.Errorf("template '%s': %w", input, err)
		}
	}

	return nil
}

func checkNode(node parse.Node) error {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return nil
		}

		for _, child := range n.Nodes {
			err := checkNode(child)
			if err != nil {
				return err
			}
		}
	case *parse.ActionNode:
		return checkNode(n.Pipe)
	case *parse.PipeNode:
		if n == nil {
			return nil
		}

		for _, cmd := range n.Cmds {
			err := checkNode(cmd)
			if err != nil {
				return err
			}
		}
	case *parse.CommandNode:
		for _, arg := range n.Args {
			err := checkNode(arg)
			if err != nil {
				return err
			}
		}
	case *parse.IfNode:
		return checkBranch(&n.BranchNode, true)
	case *parse.WithNode:
		return checkBranch(&n.BranchNode, false)
	case *parse.RangeNode:
		return checkBranch(&n.BranchNode, false)
	case *parse.TemplateNode:
		return checkNode(n.Pipe)
	case *parse.FieldNode:
		return checkReference(n.Ident)
	case *parse.VariableNode:
		if len(n.Ident) > 1 && n.Ident[0] == "$" {
			return checkReference(n.Ident[1:])
		}
	case *parse.ChainNode:
		return checkNode(n.Node)
	}

	return nil
}

// checkBranch walks a control structure. Inside with and range the dot no
// longer points at the template data, so field references there are not
// checked.
func checkBranch(branch *parse.BranchNode, sameDot bool) error {
	err := checkNode(branch.Pipe)
	if err != nil || !sameDot {
		return err
	}

	err = checkNode(branch.List)
	if err != nil {
		return err
	}

	return checkNode(branch.ElseList)
}

func checkReference(ident []string) error {
	reference := "." + strings.Join(ident, ".")

	fields, ok := References[ident[0]]
	if !ok || len(ident) > 2 {
		return fmt.Errorf("%w: %s", ErrUnknownReference, reference)
	}

	if len(ident) == 2 && !slices.Contains(fields, ident[1]) {
		return fmt.Errorf("%w: %s", ErrUnknownReference, reference)
	}

	return nil
}

func Render(templateStr string, data any) (string, error) {
	if !NeedsTemplating(templateStr) {
		return templateStr, nil
	}

	tmpl, err := parseTemplate(templateStr)
	if err != nil {
		return "", err
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	return buf.String(), nil
}
