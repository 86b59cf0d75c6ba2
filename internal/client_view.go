package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// pre styled colors, all from lipgloss
var (
	appTitleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")).Padding(0, 1)
	menuHintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).MarginTop(1)
	chatHeaderStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("109")).MarginTop(1)
	connectedStyle     = statusStyle.Copy().Foreground(lipgloss.Color("42")).Bold(true)
	connectingStyle    = statusStyle.Copy().Foreground(lipgloss.Color("178")).Italic(true)
	messageBodyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("253"))
	messageBoxStyle    = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("60")).Padding(1, 2).MarginTop(1)
	inputBoxStyle      = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1).MarginTop(1)
	timestampStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	indexStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	usernameStyle      = lipgloss.NewStyle().Bold(true)
	activeUserStyle    = usernameStyle.Copy().Foreground(lipgloss.Color("213"))
	systemMessageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true)
	annotationStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	typingStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("178")).Italic(true)
	errorStyle         = statusStyle.Copy().Foreground(lipgloss.Color("196")).Bold(true)
	dividerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("237")).Render(" ┃ ")
	userColorPalette   = []lipgloss.Color{
		lipgloss.Color("45"),
		lipgloss.Color("81"),
		lipgloss.Color("141"),
		lipgloss.Color("98"),
		lipgloss.Color("63"),
		lipgloss.Color("135"),
		lipgloss.Color("32"),
	}
)

func (model *TUIModel) View() string {
	if model.mode == modeLogin {
		return model.renderLoginView()
	}
	return model.renderChatView()
}

func (model *TUIModel) renderLoginView() string {
	title := appTitleStyle.Render("Chatwire")
	hint := menuHintStyle.Render("Pick a username (3-20 chars, letters, digits and underscore).")

	sections := []string{title, hint}
	if model.connectionError != nil {
		sections = append(sections, errorStyle.Render("Connection error: "+model.connectionError.Error()))
	} else if !model.isConnected {
		sections = append(sections, connectingStyle.Render("Connecting…"))
	}
	if notices := model.renderSystemNotices(); notices != "" {
		sections = append(sections, notices)
	}
	sections = append(sections, inputBoxStyle.Render(model.textInput.View()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (model *TUIModel) renderChatView() string {
	headerSegments := []string{"Chatwire"}
	headerSegments = append(headerSegments, fmt.Sprintf("Room %s", model.room))
	headerSegments = append(headerSegments, fmt.Sprintf("User %s", model.username))
	headerSegments = append(headerSegments, fmt.Sprintf("Online %d", len(model.onlineUsers)))
	header := chatHeaderStyle.Render(strings.Join(headerSegments, dividerStyle))

	var statusLine string
	switch {
	case model.connectionError != nil:
		statusLine = errorStyle.Render("Connection error: " + model.connectionError.Error())
	case model.isConnected:
		statusLine = connectedStyle.Render("Connected")
	default:
		statusLine = connectingStyle.Render("Connecting…")
	}

	var messageLines []string
	for _, line := range model.lines {
		messageLines = append(messageLines, model.renderChatLine(line))
	}
	if len(messageLines) == 0 {
		messageLines = append(messageLines, systemMessageStyle.Render("No messages yet. Say hi and start the conversation."))
	}

	sections := []string{header, statusLine}
	sections = append(sections, messageBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, messageLines...)))
	if typing := model.renderTypingLine(); typing != "" {
		sections = append(sections, typing)
	}
	sections = append(sections, inputBoxStyle.Render(model.textInput.View()))
	sections = append(sections, menuHintStyle.Render("/join /leave /msg /react /read /search /users /quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderChatLine renders a single scrollback row. Messages get their
// number prefix so /react and /read can address them; annotations
// (reactions, read receipts) trail the body.
func (model *TUIModel) renderChatLine(line chatLine) string {
	timestamp := timestampStyle.Render(fmt.Sprintf("[%s]", time.Unix(line.ts, 0).Format("15:04:05")))
	if line.msgIndex < 0 {
		return lipgloss.JoinHorizontal(lipgloss.Left, timestamp, " ", systemMessageStyle.Render(line.body))
	}

	var nameStyle lipgloss.Style
	if line.user == model.username {
		nameStyle = activeUserStyle
	} else {
		nameStyle = usernameStyle.Copy().Foreground(colorForUser(line.user))
	}

	index := indexStyle.Render(fmt.Sprintf("#%d", line.msgIndex))
	name := nameStyle.Render(line.user)
	bodyText := messageBodyStyle.Render(strings.ReplaceAll(line.body, "\n", "\n   "))

	rendered := lipgloss.JoinHorizontal(lipgloss.Left, timestamp, " ", index, " ", name, ": ", bodyText)
	if annotations := renderAnnotations(model.messages[line.msgIndex]); annotations != "" {
		rendered = lipgloss.JoinHorizontal(lipgloss.Left, rendered, "  ", annotationStyle.Render(annotations))
	}
	return rendered
}

func renderAnnotations(msg Message) string {
	var parts []string
	for symbol, users := range msg.Reactions {
		parts = append(parts, fmt.Sprintf("%s×%d", symbol, len(users)))
	}
	if len(msg.ReadBy) > 0 {
		parts = append(parts, fmt.Sprintf("seen by %d", len(msg.ReadBy)))
	}
	return strings.Join(parts, " ")
}

func (model *TUIModel) renderTypingLine() string {
	if len(model.typingUsers) == 0 {
		return ""
	}
	if len(model.typingUsers) == 1 {
		return typingStyle.Render(model.typingUsers[0] + " is typing…")
	}
	return typingStyle.Render(strings.Join(model.typingUsers, ", ") + " are typing…")
}

func (model *TUIModel) renderSystemNotices() string {
	var notices []string
	for _, line := range model.lines {
		if line.msgIndex < 0 {
			notices = append(notices, systemMessageStyle.Render(line.body))
		}
	}
	if len(notices) == 0 {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left, notices...)
}

// color for users
func colorForUser(name string) lipgloss.Color {
	if name == "" {
		return userColorPalette[0]
	}
	var sum int
	for _, r := range name {
		sum += int(r)
	}
	return userColorPalette[sum%len(userColorPalette)]
}
