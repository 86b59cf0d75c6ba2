package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

// these are bubbletea messages that represent asynchronous events like
// connecting, receiving a server event, or encountering an error.
type (
	connectedMsg     struct{}
	serverEventMsg   clientEvent
	errorMsg         error
	connectFailedMsg struct{ err error }
	reconnectMsg     struct{}
)

// clientEvent mirrors the server's Event envelope but keeps the data
// raw so each handler decodes only the payload it cares about.
type clientEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

func (model *TUIModel) scheduleReconnect() tea.Cmd {
	const retryDelay = 2 * time.Second
	// we schedule a future poke that nudges Update to try the connection again.
	return tea.Tick(retryDelay, func(time.Time) tea.Msg {
		return reconnectMsg{}
	})
}

// websocket dial
func (model *TUIModel) connectCmd() tea.Cmd {
	return func() tea.Msg {
		parsed, err := url.Parse(model.serverURL)
		if err != nil {
			return connectFailedMsg{err: err}
		}
		if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
			return connectFailedMsg{err: fmt.Errorf("invalid scheme for websocket: %s", parsed.Scheme)}
		}
		conn, _, err := websocket.DefaultDialer.Dial(parsed.String(), http.Header{})
		if err != nil {
			return connectFailedMsg{err: err}
		}
		model.websocketConn = conn
		return connectedMsg{}
	}
}

// readOnceCmd pulls the next event envelope off the websocket.
func (model *TUIModel) readOnceCmd() tea.Cmd {
	return func() tea.Msg {
		if model.websocketConn == nil {
			return errorMsg(fmt.Errorf("websocket not connected"))
		}
		messageType, payload, err := model.websocketConn.ReadMessage()
		if err != nil {
			return errorMsg(err)
		}
		if messageType != websocket.TextMessage {
			return serverEventMsg(clientEvent{})
		}
		var event clientEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return serverEventMsg(clientEvent{})
		}
		return serverEventMsg(event)
	}
}

// sendIntentCmd writes one intent envelope to the server.
func (model *TUIModel) sendIntentCmd(name string, payload any) tea.Cmd {
	return func() tea.Msg {
		if model.websocketConn == nil {
			return errorMsg(fmt.Errorf("websocket not connected"))
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return errorMsg(err)
		}
		envelope, err := json.Marshal(Intent{Name: name, Data: data})
		if err != nil {
			return errorMsg(err)
		}
		model.writeMutex.Lock()
		err = model.websocketConn.WriteMessage(websocket.TextMessage, envelope)
		model.writeMutex.Unlock()
		if err != nil {
			return errorMsg(err)
		}
		return nil
	}
}

// entry for bubbletea
func RunClient(serverURL, room, username string) error {
	program := tea.NewProgram(NewTUIModel(serverURL, room, username))
	_, err := program.Run()
	return err
}
