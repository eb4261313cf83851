package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/keshon/jukebox/internal/config"
	"github.com/keshon/jukebox/pkg/cmd"
)

type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Get a list of available commands" }
func (c *HelpCommand) Aliases() []string   { return []string{"h", "commands"} }
func (c *HelpCommand) Category() string    { return config.CategoryInformation }

func (c *HelpCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := FromInvocation(inv)
	if err != nil {
		return err
	}
	if mc.Registry == nil {
		return ErrNoContext
	}
	return mc.Reply(Message(config.AppName+" Help", BuildHelp(mc.Registry, mc.Prefix)))
}

// BuildHelp lists the registered commands grouped by category.
func BuildHelp(r *cmd.Registry, prefix string) string {
	byCategory := make(map[string][]cmd.Command)
	for _, c := range r.GetAll() {
		cat := config.CategoryInformation
		if cc, ok := cmd.Root(c).(Categorized); ok {
			cat = cc.Category()
		}
		byCategory[cat] = append(byCategory[cat], c)
	}

	cats := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		wi, wj := config.CategoryWeights[cats[i]], config.CategoryWeights[cats[j]]
		if wi != wj {
			return wi < wj
		}
		return cats[i] < cats[j]
	})

	var sb strings.Builder
	for _, cat := range cats {
		fmt.Fprintf(&sb, "**%s**\n", cat)
		for _, c := range byCategory[cat] {
			root := cmd.Root(c)
			line := prefix + c.Name()
			if u, ok := root.(Usager); ok {
				line = prefix + u.Usage()
			}
			fmt.Fprintf(&sb, "`%s` - %s", line, c.Description())
			if a, ok := root.(cmd.Aliased); ok && len(a.Aliases()) > 0 {
				fmt.Fprintf(&sb, " (%s)", strings.Join(a.Aliases(), ", "))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
