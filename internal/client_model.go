package internal

import (
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

// tui model struct for all the components and modes
type TUIModel struct {
	textInput       textinput.Model
	lines           []chatLine
	messages        []Message
	serverURL       string
	room            string
	username        string
	onlineUsers     []Session
	typingUsers     []string
	websocketConn   *websocket.Conn
	writeMutex      sync.Mutex
	isConnected     bool
	isAuthenticated bool
	wasTyping       bool
	connectionError error
	mode            appMode
}

// chatLine is one rendered row of the scrollback: either a message
// (with its index so slash commands can address it) or a system notice.
type chatLine struct {
	user     string
	body     string
	ts       int64
	msgIndex int // -1 for system lines
}

type appMode int

const (
	modeLogin appMode = iota
	modeChat
)

func NewTUIModel(serverURL, room, username string) *TUIModel {
	input := textinput.New()
	input.Placeholder = "Enter a username…"
	input.CharLimit = 0
	input.Focus()
	input.Prompt = "name> "

	if username == "" {
		username = defaultUsername()
	}
	input.SetValue(username)

	return &TUIModel{
		textInput: input,
		lines:     make([]chatLine, 0, 64),
		serverURL: serverURL,
		room:      room,
		username:  username,
		mode:      modeLogin,
	}
}

// init user
func defaultUsername() string {
	if user := os.Getenv("CHATWIRE_USER"); user != "" {
		return user
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return ""
}

func (model *TUIModel) Init() tea.Cmd {
	return model.connectCmd()
}
