package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"pathways/config"
	appmodel "pathways/model"
	"pathways/storage"
)

// command is one slash command of the chat input.
type command struct {
	name  string
	usage string
	help  string
	run   func(a AppView, arg string) (tea.Model, tea.Cmd)
}

var commands []command

func init() {
	commands = []command{
		{"new", "/new", "Start a new conversation", cmdNew},
		{"list", "/list", "List conversations", cmdList},
		{"switch", "/switch <n|id>", "Open a conversation", cmdSwitch},
		{"delete", "/delete [n|id]", "Delete a conversation (default: current)", cmdDelete},
		{"find", "/find <text>", "Search conversation titles", cmdFind},
		{"model", "/model [id]", "Show or switch the model", cmdModel},
		{"effort", "/effort [low|medium|high]", "Reasoning effort for o-series models", cmdEffort},
		{"tools", "/tools", "List the Pathways tools", cmdTools},
		{"prompts", "/prompts", "List prompt templates", cmdPrompts},
		{"prompt", "/prompt <name> k=v...", "Render a prompt template into the input", cmdPrompt},
		{"suggest", "/suggest <n>", "Send a suggested question", cmdSuggest},
		{"connect", "/connect", "(Re)connect the tool server", cmdConnect},
		{"config", "/config", "Show configuration checks", cmdConfig},
		{"copy", "/copy", "Copy the last answer to the clipboard", cmdCopy},
		{"help", "/help", "Show help", cmdHelp},
		{"quit", "/quit", "Quit", cmdQuit},
	}
}

// parseCommand splits "/name rest of line" into name and argument.
func parseCommand(input string) (name, arg string, ok bool) {
	if !strings.HasPrefix(input, "/") {
		return "", "", false
	}
	name, arg, _ = strings.Cut(strings.TrimPrefix(input, "/"), " ")
	return strings.ToLower(name), strings.TrimSpace(arg), name != ""
}

func (a AppView) runCommand(input string) (tea.Model, tea.Cmd) {
	name, arg, ok := parseCommand(input)
	if !ok {
		a.setError(errors.New("empty command, try /help"))
		return a, nil
	}

	for _, c := range commands {
		if c.name == name {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] command /%s", name)
			}
			return c.run(a, arg)
		}
	}

	a.setError(fmt.Errorf("unknown command /%s, try /help", name))
	return a, nil
}

var errBusy = errors.New("wait for the current response to finish, or press Esc to cancel it")

func cmdNew(a AppView, _ string) (tea.Model, tea.Cmd) {
	if a.dataModel.Streaming {
		a.setError(errBusy)
		return a, nil
	}
	if _, err := a.dataModel.StartConversation(); err != nil {
		a.setError(err)
		return a, nil
	}
	a.resetTurnState()
	a.setNotice("New conversation")
	a.refreshViewport(true)
	return a, a.dataModel.FetchConversationList()
}

func cmdList(a AppView, _ string) (tea.Model, tea.Cmd) {
	a.showList = true
	a.listTitle = "Conversations"
	a.listIdx = 0
	a.searchMatches = nil
	return a, a.dataModel.FetchConversationList()
}

func cmdSwitch(a AppView, arg string) (tea.Model, tea.Cmd) {
	if a.dataModel.Streaming {
		a.setError(errBusy)
		return a, nil
	}
	id, err := appmodel.ResolveConversationRef(a.conversations, arg)
	if err != nil {
		a.setError(err)
		return a, nil
	}
	return a, a.dataModel.LoadConversation(id)
}

func cmdDelete(a AppView, arg string) (tea.Model, tea.Cmd) {
	if a.dataModel.Streaming {
		a.setError(errBusy)
		return a, nil
	}

	id := ""
	if arg == "" {
		if a.dataModel.Current == nil {
			a.setError(errors.New("no conversation to delete"))
			return a, nil
		}
		id = a.dataModel.Current.ID
	} else {
		var err error
		if id, err = appmodel.ResolveConversationRef(a.conversations, arg); err != nil {
			a.setError(err)
			return a, nil
		}
	}

	meta := storage.ConversationMetadata{ID: id, Title: id}
	for _, c := range a.conversations {
		if c.ID == id {
			meta = c
			break
		}
	}
	if a.dataModel.Current != nil && a.dataModel.Current.ID == id {
		meta.Title = a.dataModel.Current.Title
		meta.EntryCount = len(a.dataModel.Current.Entries)
	}
	a.confirmDelete = &meta
	return a, nil
}

func cmdFind(a AppView, arg string) (tea.Model, tea.Cmd) {
	if arg == "" {
		a.setError(errors.New("usage: /find <text>"))
		return a, nil
	}
	a.listIdx = 0
	return a, a.dataModel.SearchConversations(arg)
}

func cmdModel(a AppView, arg string) (tea.Model, tea.Cmd) {
	if arg == "" {
		a.infoTitle = "Models"
		a.infoBody = renderModelList(a.dataModel.Profile, a.dataModel.Options.Model)
		a.showInfo = true
		return a, nil
	}
	if err := a.dataModel.SwitchModel(arg); err != nil {
		a.setError(err)
		return a, nil
	}
	a.setNotice("Model: " + arg)
	return a, nil
}

func renderModelList(profile *config.Profile, current string) string {
	var b strings.Builder
	for _, m := range profile.Models {
		marker := "  "
		if m.ID == current {
			marker = "▸ "
		}
		line := fmt.Sprintf("%s%-10s %s", marker, m.ID, m.Label)
		if m.IsReasoning() {
			line += " (reasoning)"
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\nSwitch with /model <id>")
	return b.String()
}

func cmdEffort(a AppView, arg string) (tea.Model, tea.Cmd) {
	if arg == "" {
		a.setNotice(fmt.Sprintf("Reasoning effort: %s", a.dataModel.Options.ReasoningEffort))
		return a, nil
	}
	if err := a.dataModel.SetReasoningEffort(arg); err != nil {
		a.setError(err)
		return a, nil
	}
	notice := "Reasoning effort: " + a.dataModel.Options.ReasoningEffort
	if !a.dataModel.EffortApplies() {
		notice += fmt.Sprintf(" (not sent to %s)", a.dataModel.Options.Model)
	}
	a.setNotice(notice)
	return a, nil
}

func cmdTools(a AppView, _ string) (tea.Model, tea.Cmd) {
	tools := a.dataModel.ToolList()
	if len(tools) == 0 {
		a.setError(appmodel.ErrNoToolSession)
		return a, nil
	}
	var b strings.Builder
	for _, t := range tools {
		fmt.Fprintf(&b, "%s\n  %s\n", t.Name, truncateDescription(t.Description))
	}
	a.infoTitle = fmt.Sprintf("Tools (%d)", len(tools))
	a.infoBody = strings.TrimSuffix(b.String(), "\n")
	a.showInfo = true
	return a, nil
}

func cmdPrompts(a AppView, _ string) (tea.Model, tea.Cmd) {
	prompts := a.dataModel.PromptList()
	if len(prompts) == 0 {
		a.setNotice("The tool server offers no prompts.")
		return a, nil
	}
	var b strings.Builder
	for _, p := range prompts {
		usage := "/prompt " + p.Name
		for _, arg := range p.Arguments {
			if arg.Required {
				usage += " " + arg.Name + "=..."
			} else {
				usage += " [" + arg.Name + "=...]"
			}
		}
		fmt.Fprintf(&b, "%s\n  %s\n", usage, truncateDescription(p.Description))
	}
	a.infoTitle = "Prompts"
	a.infoBody = strings.TrimSuffix(b.String(), "\n")
	a.showInfo = true
	return a, nil
}

func cmdPrompt(a AppView, arg string) (tea.Model, tea.Cmd) {
	name, rest, _ := strings.Cut(arg, " ")
	if name == "" {
		a.setError(errors.New("usage: /prompt <name> key=value..."))
		return a, nil
	}
	args, err := appmodel.ParsePromptArgs(rest)
	if err != nil {
		a.setError(err)
		return a, nil
	}
	return a, a.dataModel.RunPrompt(name, args)
}

func cmdSuggest(a AppView, arg string) (tea.Model, tea.Cmd) {
	suggestions := a.dataModel.Profile.Suggestions
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(suggestions) {
		a.setError(fmt.Errorf("usage: /suggest <1-%d>", len(suggestions)))
		return a, nil
	}
	return a.submitPrompt(suggestions[n-1].Prompt)
}

func cmdConnect(a AppView, _ string) (tea.Model, tea.Cmd) {
	if a.dataModel.Connect == nil {
		a.setError(errors.New("no tool server configured"))
		return a, nil
	}
	return a, connectToolsMsgCmd
}

func cmdConfig(a AppView, _ string) (tea.Model, tea.Cmd) {
	var b strings.Builder
	for _, c := range a.dataModel.ConfigChecks() {
		b.WriteString(formatCheck(c) + "\n")
	}
	a.infoTitle = "Configuration"
	a.infoBody = strings.TrimSuffix(b.String(), "\n")
	a.showInfo = true
	return a, nil
}

func cmdCopy(a AppView, _ string) (tea.Model, tea.Cmd) {
	if a.dataModel.Current == nil || a.dataModel.Current.LastAnswer() == "" {
		a.setError(errors.New("no answer to copy yet"))
		return a, nil
	}
	if err := clipboard.WriteAll(a.dataModel.Current.LastAnswer()); err != nil {
		a.setError(fmt.Errorf("failed to copy to clipboard: %w", err))
		return a, nil
	}
	a.setNotice("Copied the last answer to the clipboard")
	return a, nil
}

func cmdHelp(a AppView, _ string) (tea.Model, tea.Cmd) {
	a.showHelp = true
	return a, nil
}

func cmdQuit(a AppView, _ string) (tea.Model, tea.Cmd) {
	return a.quit()
}
