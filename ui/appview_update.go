package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"pathways/config"
	appmodel "pathways/model"
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		a.ready = true
		a.refreshViewport(true)
		return a, nil

	case spinner.TickMsg:
		if !a.busy() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		if a.dataModel.Streaming {
			a.refreshViewport(true)
		}
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)

	case connectToolsMsg:
		if a.toolsState == toolsConnecting {
			return a, nil
		}
		a.toolsState = toolsConnecting
		a.toolsErr = nil
		a.setNotice("Connecting to the Pathways tool server...")
		return a, tea.Batch(a.spinner.Tick, a.dataModel.ConnectTools())

	case appmodel.ToolsConnectedMsg:
		if msg.Err != nil {
			a.toolsState = toolsOffline
			a.toolsErr = msg.Err
			a.setError(fmt.Errorf("tool server unavailable, answering without tools: %w", msg.Err))
			return a, nil
		}
		a.dataModel.AdoptTools(msg.Tools)
		a.toolsState = toolsConnected
		a.setNotice(fmt.Sprintf("Connected: %d tools, %d prompts", len(msg.Tools.Tools()), len(msg.Tools.Prompts())))
		return a, nil
	}

	if cmd, handled := a.handleTurnMessage(msg); handled {
		return a, cmd
	}
	if cmd, handled := a.handleConversationMessage(msg); handled {
		return a, cmd
	}

	switch msg := msg.(type) {
	case appmodel.PromptRenderedMsg:
		if msg.Err != nil {
			a.setError(fmt.Errorf("prompt %s: %w", msg.Name, msg.Err))
			return a, nil
		}
		a.textarea.SetValue(msg.Text)
		a.setNotice(fmt.Sprintf("Prompt %s loaded into the input. Press Enter to send.", msg.Name))
		return a, nil

	case appmodel.ShutdownCompleteMsg:
		if msg.Err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[UI] tool shutdown: %v", msg.Err)
		}
		if a.dataModel.Quitting {
			return a, tea.Quit
		}
		a.toolsState = toolsOffline
		return a, nil
	}

	return a, nil
}

func (a AppView) busy() bool {
	return a.dataModel.Streaming || a.dataModel.Quitting || a.toolsState == toolsConnecting
}

// handleTurnMessage handles the event stream of a running turn.
func (a *AppView) handleTurnMessage(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case appmodel.TurnTextMsg:
		a.currentResp.WriteString(msg.Chunk)
		a.refreshViewport(true)
		return a.dataModel.WaitForTurnEvent(), true

	case appmodel.ToolStartMsg:
		a.liveCalls = append(a.liveCalls, liveToolCall{Call: msg.Call})
		// Text streamed before the call belongs to the round that requested it.
		a.currentResp.Reset()
		a.refreshViewport(true)
		return a.dataModel.WaitForTurnEvent(), true

	case appmodel.ToolResultMsg:
		for i := range a.liveCalls {
			if a.liveCalls[i].Record == nil && a.liveCalls[i].Call.ID == msg.Record.CallID {
				rec := msg.Record
				a.liveCalls[i].Record = &rec
				break
			}
		}
		a.refreshViewport(true)
		return a.dataModel.WaitForTurnEvent(), true

	case appmodel.TurnDoneMsg:
		cmd := a.dataModel.FinishTurn(msg)
		a.resetTurnState()

		var transportErr *appmodel.TransportError
		switch {
		case errors.Is(msg.Err, context.Canceled):
			a.setNotice("Cancelled.")
		case errors.As(msg.Err, &transportErr):
			a.setError(fmt.Errorf("model stream failed: %w", transportErr.Err))
		case msg.Err != nil:
			a.setError(msg.Err)
		case msg.Result != nil && msg.Result.Capped:
			a.setNotice(fmt.Sprintf("Stopped after %d tool rounds.", msg.Result.Rounds))
		default:
			a.setNotice("")
		}

		a.refreshViewport(true)
		return tea.Batch(cmd, a.dataModel.FetchConversationList()), true
	}
	return nil, false
}

// handleConversationMessage handles store results.
func (a *AppView) handleConversationMessage(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case appmodel.ConversationSavedMsg:
		if msg.Err != nil {
			a.setError(fmt.Errorf("failed to save conversation: %w", msg.Err))
		}
		return nil, true

	case appmodel.ConversationsListMsg:
		if msg.Err != nil {
			a.setError(msg.Err)
			return nil, true
		}
		a.conversations = msg.Conversations
		return nil, true

	case appmodel.ConversationLoadedMsg:
		if msg.Err != nil {
			a.setError(msg.Err)
			return nil, true
		}
		a.dataModel.Current = msg.Conversation
		a.showList = false
		a.setNotice("Switched to " + msg.Conversation.Title)
		a.refreshViewport(true)
		return nil, true

	case appmodel.ConversationDeletedMsg:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a.dataModel.FetchConversationList(), true
		}
		if msg.Next != nil {
			a.dataModel.Current = msg.Next
		}
		a.setNotice("Deleted conversation " + msg.DeletedID)
		a.refreshViewport(true)
		return a.dataModel.FetchConversationList(), true

	case appmodel.SearchResultsMsg:
		if msg.Err != nil {
			a.setError(msg.Err)
			return nil, true
		}
		a.searchMatches = msg.Matches
		a.listTitle = fmt.Sprintf("Conversations matching %q", msg.Query)
		a.showList = true
		return nil, true
	}
	return nil, false
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kb := a.keys
	key := msg.String()

	if key == kb.GetActionKey("quit") || key == "ctrl+c" {
		return a.quit()
	}

	if a.confirmDelete != nil {
		switch key {
		case "y", "Y":
			id := a.confirmDelete.ID
			a.confirmDelete = nil
			return a, a.dataModel.DeleteConversation(id)
		case "n", "N", "esc":
			a.confirmDelete = nil
		}
		return a, nil
	}

	if a.showInfo {
		if key == "esc" || key == "enter" {
			a.showInfo = false
		}
		return a, nil
	}

	if a.showHelp {
		if key == "esc" || key == kb.GetActionKey("help") {
			a.showHelp = false
		}
		return a, nil
	}

	if a.showList {
		return a.handleListKey(key)
	}

	switch key {
	case kb.GetActionKey("help"):
		a.showHelp = true
		return a, nil
	case kb.GetActionKey("new_conversation"):
		return a.runCommand("/new")
	case kb.GetActionKey("conversation_list"):
		return a.runCommand("/list")
	case kb.GetActionKey("yank_last_response"):
		return a.runCommand("/copy")
	case kb.GetActionKey("toggle_sidebar"):
		a.showSidebar = !a.showSidebar
		a.layout()
		a.refreshViewport(false)
		return a, nil
	case kb.GetActionKey("clear_input"):
		a.textarea.Reset()
		return a, nil
	case kb.GetActionKey("cancel_turn"):
		if a.dataModel.Streaming {
			a.dataModel.CancelTurn()
			a.setNotice("Cancelling...")
		}
		return a, nil
	case kb.GetActionKey("scroll_down"):
		a.viewport.ScrollDown(1)
		return a, nil
	case kb.GetActionKey("scroll_up"):
		a.viewport.ScrollUp(1)
		return a, nil
	case kb.GetActionKey("half_page_down"):
		a.viewport.HalfPageDown()
		return a, nil
	case kb.GetActionKey("half_page_up"):
		a.viewport.HalfPageUp()
		return a, nil
	case kb.GetActionKey("page_down"), "pgdown":
		a.viewport.PageDown()
		return a, nil
	case kb.GetActionKey("page_up"), "pgup":
		a.viewport.PageUp()
		return a, nil
	case kb.GetActionKey("scroll_to_top"):
		a.viewport.GotoTop()
		return a, nil
	case kb.GetActionKey("scroll_to_bottom"):
		a.viewport.GotoBottom()
		return a, nil
	case "enter":
		input := strings.TrimSpace(a.textarea.Value())
		if input == "" {
			return a, nil
		}
		a.textarea.Reset()
		if strings.HasPrefix(input, "/") {
			return a.runCommand(input)
		}
		return a.submitPrompt(input)
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

func (a AppView) handleListKey(key string) (tea.Model, tea.Cmd) {
	items := a.listItems()
	switch key {
	case "esc", "q":
		a.showList = false
		a.searchMatches = nil
	case "j", "down":
		if a.listIdx < len(items)-1 {
			a.listIdx++
		}
	case "k", "up":
		if a.listIdx > 0 {
			a.listIdx--
		}
	case "enter":
		if a.listIdx < len(items) {
			return a, a.dataModel.LoadConversation(items[a.listIdx].ID)
		}
	case "d":
		if a.listIdx < len(items) {
			item := items[a.listIdx]
			a.confirmDelete = &item
			a.showList = false
		}
	}
	return a, nil
}

func (a AppView) submitPrompt(prompt string) (tea.Model, tea.Cmd) {
	if a.dataModel.Streaming {
		a.setNotice("A response is still streaming. Press Esc to cancel it.")
		return a, nil
	}

	cmd := a.dataModel.StartTurn(prompt)
	if cmd == nil {
		return a, nil
	}
	a.resetTurnState()
	a.pendingPrompt = prompt
	a.setNotice("")
	a.refreshViewport(true)

	if config.DebugLog != nil {
		config.DebugLog.Printf("[UI] prompt submitted (%d chars)", len(prompt))
	}
	return a, tea.Batch(cmd, a.spinner.Tick)
}

func (a AppView) quit() (tea.Model, tea.Cmd) {
	if a.dataModel.Quitting {
		// Second quit while shutting down
		return a, tea.Quit
	}
	if config.DebugLog != nil {
		config.DebugLog.Printf("[UI] quit requested")
	}
	a.dataModel.Quitting = true
	a.dataModel.CancelTurn()
	return a, tea.Batch(a.spinner.Tick, a.dataModel.ShutdownTools())
}
