package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"pathways/config"
	appmodel "pathways/model"
	"pathways/storage"
)

const (
	sidebarWidth = 38
	// title, notice, textarea (3) and status bar
	chromeHeight = 6
)

// Tool connection states shown in the sidebar.
const (
	toolsOffline    = "offline"
	toolsConnecting = "connecting"
	toolsConnected  = "connected"
)

// liveToolCall is a tool call of the running turn; Record is nil until the
// result arrives.
type liveToolCall struct {
	Call   appmodel.ToolCall
	Record *appmodel.ToolCallRecord
}

type AppView struct {
	// Reference to core data model
	dataModel *appmodel.Model
	keys      *config.KeyBindingsConfig

	// UI Components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// Window state
	width       int
	height      int
	ready       bool
	showSidebar bool
	showHelp    bool

	// Streaming UI state
	pendingPrompt string
	currentResp   *strings.Builder // Pointer to avoid copy panic
	liveCalls     []liveToolCall

	// Conversation list overlay (/list, /find)
	showList      bool
	listTitle     string
	listIdx       int
	conversations []storage.ConversationMetadata
	searchMatches []storage.ConversationMatch

	// Delete confirmation state
	confirmDelete *storage.ConversationMetadata

	// Acknowledge modal for /tools, /prompts and /config
	showInfo  bool
	infoTitle string
	infoBody  string

	// One-line notice under the title
	notice      string
	noticeError bool

	toolsState string
	toolsErr   error

	// Rendered markdown keyed by width and content
	markdownCache map[string]string
}

// NewAppView builds the chat host around a data model. keys may be nil.
func NewAppView(dataModel *appmodel.Model, keys *config.KeyBindingsConfig) AppView {
	if keys == nil {
		keys = config.DefaultKeybindings()
	}

	ta := textarea.New()
	ta.Placeholder = "Ask about segments, metrics or regions, or type /help..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Alt+Enter for newline, Enter sends
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return AppView{
		dataModel:     dataModel,
		keys:          keys,
		textarea:      ta,
		viewport:      viewport.New(0, 0),
		spinner:       sp,
		showSidebar:   true,
		currentResp:   &strings.Builder{},
		toolsState:    toolsOffline,
		markdownCache: make(map[string]string),
	}
}

func (a AppView) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textarea.Blink,
		a.dataModel.FetchConversationList(),
	}

	if a.dataModel.Config.ToolServer.AutoConnect && a.dataModel.Connect != nil {
		cmds = append(cmds, connectToolsMsgCmd)
	}

	return tea.Batch(cmds...)
}

// connectToolsMsg asks Update to start a connection so the state change
// happens on the UI goroutine.
type connectToolsMsg struct{}

func connectToolsMsgCmd() tea.Msg { return connectToolsMsg{} }

func (a AppView) View() string {
	if !a.ready {
		return "Loading Pathways..."
	}
	if a.dataModel.Quitting {
		return renderSpinner("Shutting down tool server...", a.spinner.View(), a.width, a.height)
	}

	if a.confirmDelete != nil {
		return RenderConfirmationModal(
			"Delete conversation?",
			fmt.Sprintf("%q\n%d entries will be removed.", a.confirmDelete.Title, a.confirmDelete.EntryCount),
			a.width, a.height,
		)
	}
	if a.showInfo {
		return RenderAcknowledgeModal(a.infoTitle, a.infoBody, ModalTypeInfo, a.width, a.height)
	}
	if a.showHelp {
		return a.renderHelpModal(a.width, a.height)
	}
	if a.showList {
		return a.renderConversationList(a.width, a.height)
	}

	main := a.viewport.View()
	if a.showSidebar && a.width > sidebarWidth+40 {
		main = lipgloss.JoinHorizontal(lipgloss.Top, main, a.renderSidebar(sidebarWidth, a.viewport.Height))
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		a.renderTitle(),
		a.renderNotice(),
		main,
		a.textarea.View(),
		a.renderStatusBar(),
	)
}

func (a AppView) renderTitle() string {
	title := AssistantStyle.Bold(true).Render("Pathways")
	title += TitleStyle.Render(" - " + a.dataModel.Options.Model)

	convTitle := appmodel.DefaultTitle
	if a.dataModel.Current != nil {
		convTitle = a.dataModel.Current.Title
	}
	maxTitle := a.width - lipgloss.Width(title) - 12
	if maxTitle > 0 {
		convTitle = runewidth.Truncate(convTitle, maxTitle, "…")
	}
	title += UserStyle.Render(" - " + convTitle)

	if a.dataModel.Streaming {
		title += DimStyle.Render(" | " + a.spinner.View())
	}
	return title
}

func (a AppView) renderNotice() string {
	if a.notice == "" {
		return ""
	}
	notice := runewidth.Truncate(a.notice, a.width-2, "…")
	if a.noticeError {
		return ErrorStyle.Render(notice)
	}
	return DimStyle.Render(notice)
}

func (a AppView) renderStatusBar() string {
	kb := a.keys
	descStyle := lipgloss.NewStyle().Foreground(successColor).Bold(true)
	statusBar := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s  Enter %s  Alt+Enter %s",
		kb.DisplayActionKey("quit"), descStyle.Render("Quit"),
		kb.DisplayActionKey("help"), descStyle.Render("Help"),
		kb.DisplayActionKey("new_conversation"), descStyle.Render("New"),
		kb.DisplayActionKey("conversation_list"), descStyle.Render("Conversations"),
		descStyle.Render("Send"),
		descStyle.Render("New line"),
	)
	return StatusStyle.Render(statusBar)
}

// layout sizes the viewport and input to the window.
func (a *AppView) layout() {
	chatWidth := a.width
	if a.showSidebar && a.width > sidebarWidth+40 {
		chatWidth = a.width - sidebarWidth - 1
	}
	height := a.height - chromeHeight
	if height < 3 {
		height = 3
	}
	a.viewport.Width = chatWidth
	a.viewport.Height = height
	a.textarea.SetWidth(a.width)
}

func (a *AppView) setNotice(text string) {
	a.notice = text
	a.noticeError = false
}

func (a *AppView) setError(err error) {
	a.notice = err.Error()
	a.noticeError = true
	if config.DebugLog != nil {
		config.DebugLog.Printf("[UI] %v", err)
	}
}

func (a *AppView) resetTurnState() {
	a.pendingPrompt = ""
	a.currentResp.Reset()
	a.liveCalls = nil
}
