package internal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

func (model *TUIModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMessage := message.(type) {
	case tea.KeyMsg:
		// Any mode should respect Ctrl+C so the user can bail out quickly.
		if typedMessage.Type == tea.KeyCtrlC {
			if model.websocketConn != nil {
				_ = model.websocketConn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				_ = model.websocketConn.Close()
			}
			return model, tea.Quit
		}
		switch model.mode {
		case modeLogin:
			if typedMessage.Type == tea.KeyEnter {
				trimmed := strings.TrimSpace(model.textInput.Value())
				if trimmed == "" {
					model.appendSystem("Username cannot be empty.")
					return model, nil
				}
				if !model.isConnected {
					model.appendSystem("Still connecting, try again in a moment.")
					return model, nil
				}
				model.username = trimmed
				model.textInput.SetValue("")
				return model, model.sendIntentCmd(IntentAuthenticate, AuthenticatePayload{Username: trimmed})
			}
			var cmd tea.Cmd
			model.textInput, cmd = model.textInput.Update(typedMessage)
			return model, cmd
		case modeChat:
			if typedMessage.Type == tea.KeyEnter {
				trimmed := strings.TrimSpace(model.textInput.Value())
				model.textInput.SetValue("")
				model.wasTyping = false
				if trimmed == "" {
					return model, nil
				}
				if strings.HasPrefix(trimmed, "/") {
					return model, model.runCommand(trimmed)
				}
				if !model.isConnected {
					model.appendSystem("Not connected.")
					return model, nil
				}
				return model, model.sendIntentCmd(IntentSendMessage, SendMessagePayload{Content: trimmed, Room: model.room})
			}
			var cmd tea.Cmd
			model.textInput, cmd = model.textInput.Update(typedMessage)
			return model, tea.Batch(cmd, model.typingCmd())
		}

	case connectedMsg:
		model.isConnected = true
		model.connectionError = nil
		if model.mode == modeChat && model.username != "" {
			// reconnect: authenticate again under the same name.
			return model, tea.Batch(model.readOnceCmd(), model.sendIntentCmd(IntentAuthenticate, AuthenticatePayload{Username: model.username}))
		}
		return model, model.readOnceCmd()

	case serverEventMsg:
		cmd := model.handleServerEvent(clientEvent(typedMessage))
		return model, tea.Batch(model.readOnceCmd(), cmd)

	case errorMsg:
		model.isConnected = false
		model.isAuthenticated = false
		model.connectionError = typedMessage
		return model, model.scheduleReconnect()

	case connectFailedMsg:
		model.connectionError = typedMessage.err
		return model, model.scheduleReconnect()

	case reconnectMsg:
		if !model.isConnected {
			return model, model.connectCmd()
		}
		return model, nil
	}
	return model, nil
}

// typingCmd sends typing_start when the input transitions from empty to
// non-empty and typing_stop on the way back. The server expires stale
// entries on its own, so we only signal the edges.
func (model *TUIModel) typingCmd() tea.Cmd {
	if !model.isAuthenticated {
		return nil
	}
	hasText := strings.TrimSpace(model.textInput.Value()) != ""
	if hasText && !model.wasTyping {
		model.wasTyping = true
		return model.sendIntentCmd(IntentTypingStart, TypingPayloadIn{Room: model.room})
	}
	if !hasText && model.wasTyping {
		model.wasTyping = false
		return model.sendIntentCmd(IntentTypingStop, TypingPayloadIn{Room: model.room})
	}
	return nil
}

// runCommand handles the slash commands of the chat prompt.
func (model *TUIModel) runCommand(input string) tea.Cmd {
	fields := strings.Fields(input)
	command := strings.ToLower(fields[0])
	args := fields[1:]

	switch command {
	case "/quit", "/exit":
		if model.websocketConn != nil {
			_ = model.websocketConn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client quit"))
			_ = model.websocketConn.Close()
		}
		return tea.Quit
	case "/join":
		if len(args) != 1 {
			model.appendSystem("Usage: /join <room>")
			return nil
		}
		return model.sendIntentCmd(IntentJoinRoom, JoinRoomPayload{Room: args[0]})
	case "/leave":
		return model.sendIntentCmd(IntentLeaveRoom, LeaveRoomPayload{Room: model.room})
	case "/msg":
		if len(args) < 2 {
			model.appendSystem("Usage: /msg <user> <text>")
			return nil
		}
		content := strings.Join(args[1:], " ")
		return model.sendIntentCmd(IntentSendMessage, SendMessagePayload{Content: content, IsPrivate: true, Recipient: args[0]})
	case "/react":
		if len(args) != 2 {
			model.appendSystem("Usage: /react <message#> <emoji>")
			return nil
		}
		msg, ok := model.messageAt(args[0])
		if !ok {
			return nil
		}
		return model.sendIntentCmd(IntentAddReaction, ReactionPayload{MessageID: msg.ID, Room: msg.Room, Reaction: args[1]})
	case "/read":
		if len(args) != 1 {
			model.appendSystem("Usage: /read <message#>")
			return nil
		}
		msg, ok := model.messageAt(args[0])
		if !ok {
			return nil
		}
		return model.sendIntentCmd(IntentMarkRead, MarkReadPayload{MessageID: msg.ID, Room: msg.Room})
	case "/search":
		if len(args) == 0 {
			model.appendSystem("Usage: /search <query>")
			return nil
		}
		return model.sendIntentCmd(IntentSearchMessages, SearchPayload{Room: model.room, Query: strings.Join(args, " ")})
	case "/users":
		if len(model.onlineUsers) == 0 {
			model.appendSystem("Nobody online.")
			return nil
		}
		var names []string
		for _, user := range model.onlineUsers {
			names = append(names, fmt.Sprintf("%s (%s)", user.Username, user.CurrentRoom))
		}
		model.appendSystem("Online: " + strings.Join(names, ", "))
		return nil
	default:
		model.appendSystem("Unknown command: " + command)
		return nil
	}
}

func (model *TUIModel) messageAt(arg string) (Message, bool) {
	index, err := strconv.Atoi(arg)
	if err != nil || index < 0 || index >= len(model.messages) {
		model.appendSystem("No such message number.")
		return Message{}, false
	}
	return model.messages[index], true
}

// handleServerEvent folds one server event into the model.
func (model *TUIModel) handleServerEvent(event clientEvent) tea.Cmd {
	switch event.Name {
	case EventAuthenticated:
		var session Session
		if err := json.Unmarshal(event.Data, &session); err != nil {
			return nil
		}
		model.isAuthenticated = true
		model.username = session.Username
		requestedRoom := model.room
		model.room = session.CurrentRoom
		model.mode = modeChat
		model.textInput.Prompt = "> "
		model.textInput.Placeholder = "Type a message…"
		model.appendSystem(fmt.Sprintf("Signed in as %s.", session.Username))
		if requestedRoom != "" && requestedRoom != session.CurrentRoom {
			return model.sendIntentCmd(IntentJoinRoom, JoinRoomPayload{Room: requestedRoom})
		}
	case EventAuthError:
		var payload ErrorPayload
		_ = json.Unmarshal(event.Data, &payload)
		model.appendSystem("Sign-in failed: " + payload.Message)
		model.mode = modeLogin
		model.textInput.Prompt = "name> "
	case EventOnlineUsers:
		var users []Session
		if err := json.Unmarshal(event.Data, &users); err == nil {
			model.onlineUsers = users
		}
	case EventMessageHistory:
		var payload MessageHistoryPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil
		}
		model.messages = model.messages[:0]
		model.lines = model.lines[:0]
		// history arrives newest first; display oldest to newest.
		for i := len(payload.Messages) - 1; i >= 0; i-- {
			model.appendMessage(payload.Messages[i])
		}
	case EventNewMessage, EventMessageSent:
		var msg Message
		if err := json.Unmarshal(event.Data, &msg); err == nil {
			model.appendMessage(msg)
		}
	case EventUserTyping, EventUserStoppedTyping:
		var payload TypingPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil || payload.Room != model.room {
			return nil
		}
		model.setTyping(payload.Username, event.Name == EventUserTyping)
	case EventRoomJoined:
		var payload RoomJoinedPayload
		if err := json.Unmarshal(event.Data, &payload); err == nil {
			model.room = payload.Room
			model.typingUsers = nil
			model.appendSystem("Joined " + payload.Room + ".")
		}
	case EventUserJoined, EventUserJoinedRoom:
		var payload UserJoinedPayload
		if err := json.Unmarshal(event.Data, &payload); err == nil {
			model.appendSystem(payload.Username + " joined " + payload.Room + ".")
		}
	case EventUserLeft, EventUserLeftRoom:
		var payload UserLeftPayload
		if err := json.Unmarshal(event.Data, &payload); err == nil {
			model.appendSystem(payload.Username + " left " + payload.Room + ".")
			model.setTyping(payload.Username, false)
		}
	case EventReactionAdded:
		var payload ReactionAddedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil
		}
		for i := range model.messages {
			if model.messages[i].ID == payload.MessageID {
				model.messages[i].Reactions = payload.Reactions
			}
		}
	case EventMessageRead:
		var payload MessageReadPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil
		}
		for i := range model.messages {
			if model.messages[i].ID == payload.MessageID {
				model.messages[i].ReadBy = payload.ReadBy
			}
		}
	case EventSearchResults:
		var payload SearchResultsPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil
		}
		model.appendSystem(fmt.Sprintf("%d result(s) for %q:", len(payload.Results), payload.Query))
		for _, msg := range payload.Results {
			model.appendSystem(fmt.Sprintf("  [%s] %s: %s", msg.CreatedAt.Format("15:04:05"), msg.Sender, msg.Content))
		}
	case EventError:
		var payload ErrorPayload
		_ = json.Unmarshal(event.Data, &payload)
		model.appendSystem("Error: " + payload.Message)
	}
	return nil
}

func (model *TUIModel) setTyping(username string, typing bool) {
	for i, existing := range model.typingUsers {
		if existing == username {
			if !typing {
				model.typingUsers = append(model.typingUsers[:i], model.typingUsers[i+1:]...)
			}
			return
		}
	}
	if typing {
		model.typingUsers = append(model.typingUsers, username)
	}
}

func (model *TUIModel) appendSystem(body string) {
	model.lines = append(model.lines, chatLine{user: "system", body: body, ts: time.Now().Unix(), msgIndex: -1})
}

func (model *TUIModel) appendMessage(msg Message) {
	model.messages = append(model.messages, msg)
	body := msg.Content
	if msg.Kind == KindImage && msg.AttachmentRef != "" {
		body = strings.TrimSpace(body + " [image: " + msg.AttachmentRef + "]")
	}
	if msg.IsPrivate {
		body = "(private) " + body
	}
	model.lines = append(model.lines, chatLine{
		user:     msg.Sender,
		body:     body,
		ts:       msg.CreatedAt.Unix(),
		msgIndex: len(model.messages) - 1,
	})
}
