package main

import (
	"text/template"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	helpHeaderStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	helpCmdStyle    = lipgloss.NewStyle().Foreground(colorPrimaryLight)
)

// Command groups shown in root help, in display order.
var helpGroups = []*cobra.Group{
	{ID: "defaults", Title: "Default Dataset:"},
	{ID: "data", Title: "Datasets & Workspaces:"},
	{ID: "transfer", Title: "Backup:"},
	{ID: "tools", Title: "Tools:"},
}

var commandGroup = map[string]string{
	"ensure":    "defaults",
	"setting":   "defaults",
	"describe":  "data",
	"dataset":   "data",
	"workspace": "data",
	"export":    "transfer",
	"import":    "transfer",
	"mcp":       "tools",
	"version":   "tools",
}

type envVar struct {
	Name  string
	Usage string
}

// envHelp lists the environment variables read by every command.
var envHelp = []envVar{
	{"VISTA_WORKSPACE", "Workspace used when --workspace is not given"},
	{"VISTA_DB_PATH", "Settings database path"},
	{"VISTA_CAN_UPDATE_SETTINGS", "true or false; any other value is rejected"},
	{"VISTA_REDIRECT_TARGET", "Where 'ensure' redirects when no dataset exists"},
	{"VISTA_LOG_FORMAT", "text or json"},
	{"VISTA_LOG_LEVEL", "debug, info, warn or error"},
}

var helpTemplateFuncs = template.FuncMap{
	"header": func(s string) string {
		if isTTY() {
			return helpHeaderStyle.Render(s)
		}
		return s
	},
	"cmd": func(s string) string {
		if isTTY() {
			return helpCmdStyle.Render(s)
		}
		return s
	},
	"muted": func(s string) string {
		if isTTY() {
			return mutedStyle.Render(s)
		}
		return s
	},
	"envHelp": func() []envVar { return envHelp },
}

const helpTemplate = `{{with .Long}}{{. | trimTrailingWhitespaces}}

{{end}}{{if or .Runnable .HasSubCommands}}{{header "Usage:"}}
  {{cmd .CommandPath}}{{if .HasAvailableSubCommands}} {{muted "[command]"}}{{end}}{{if .HasAvailableFlags}} {{muted "[flags]"}}{{end}}

{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}{{header "Commands:"}}
{{range $cmds}}{{if .IsAvailableCommand}}  {{cmd (rpad .Name .NamePadding)}} {{.Short}}
{{end}}{{end}}
{{else}}{{range $group := .Groups}}{{header .Title}}
{{range $cmds}}{{if and (eq .GroupID $group.ID) .IsAvailableCommand}}  {{cmd (rpad .Name .NamePadding)}} {{.Short}}
{{end}}{{end}}
{{end}}{{if not .AllChildCommandsHaveGroup}}{{header "Other Commands:"}}
{{range $cmds}}{{if and (eq .GroupID "") .IsAvailableCommand}}  {{cmd (rpad .Name .NamePadding)}} {{.Short}}
{{end}}{{end}}
{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}{{header "Flags:"}}
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}{{header "Global Flags:"}}
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if not .HasParent}}{{header "Environment:"}}
{{range envHelp}}  {{cmd (rpad .Name 27)}} {{.Usage}}
{{end}}
{{end}}{{if .HasAvailableSubCommands}}{{muted "Use"}} {{cmd (printf "%s [command] --help" .CommandPath)}} {{muted "for more information."}}
{{end}}`

// initHelp groups the top-level commands and installs the styled template.
func initHelp(cmd *cobra.Command) {
	groupCommands(cmd)

	for name, fn := range helpTemplateFuncs {
		cobra.AddTemplateFunc(name, fn)
	}

	applyHelpTemplate(cmd)
}

// groupCommands registers helpGroups on root and assigns each known
// subcommand to its group. Safe to call more than once.
func groupCommands(root *cobra.Command) {
	for _, g := range helpGroups {
		if !root.ContainsGroup(g.ID) {
			root.AddGroup(g)
		}
	}
	for _, sub := range root.Commands() {
		if id, ok := commandGroup[sub.Name()]; ok {
			sub.GroupID = id
		}
	}
}

func applyHelpTemplate(cmd *cobra.Command) {
	cmd.SetHelpTemplate(helpTemplate)
	for _, subCmd := range cmd.Commands() {
		applyHelpTemplate(subCmd)
	}
}
