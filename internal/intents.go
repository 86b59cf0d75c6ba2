package internal

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Inbound intent names. Disconnect has no envelope; the transport calls
// Gateway.Disconnect directly when the connection drops.
const (
	IntentAuthenticate   = "authenticate"
	IntentSendMessage    = "send_message"
	IntentTypingStart    = "typing_start"
	IntentTypingStop     = "typing_stop"
	IntentJoinRoom       = "join_room"
	IntentLeaveRoom      = "leave_room"
	IntentAddReaction    = "add_reaction"
	IntentMarkRead       = "mark_read"
	IntentSearchMessages = "search_messages"
)

// Intent is the inbound envelope read off a session's transport. Data
// stays raw until the gateway knows which payload struct to decode.
type Intent struct {
	Name string          `json:"intent"`
	Data json.RawMessage `json:"data"`
}

type AuthenticatePayload struct {
	Username string `json:"username" validate:"required,min=3,max=20,handle"`
	Avatar   string `json:"avatar"`
}

type SendMessagePayload struct {
	Content       string `json:"content" validate:"max=1000"`
	Room          string `json:"room"`
	Kind          string `json:"type" validate:"omitempty,oneof=text image"`
	AttachmentRef string `json:"fileUrl"`
	IsPrivate     bool   `json:"isPrivate"`
	Recipient     string `json:"recipient" validate:"required_if=IsPrivate true"`
}

type TypingPayloadIn struct {
	Room string `json:"room"`
}

type JoinRoomPayload struct {
	Room string `json:"room" validate:"required"`
}

type LeaveRoomPayload struct {
	Room string `json:"room" validate:"required"`
}

type ReactionPayload struct {
	MessageID string `json:"messageId" validate:"required"`
	Room      string `json:"room" validate:"required"`
	Reaction  string `json:"reaction" validate:"required"`
}

type MarkReadPayload struct {
	MessageID string `json:"messageId" validate:"required"`
	Room      string `json:"room" validate:"required"`
}

type SearchPayload struct {
	Room  string `json:"room" validate:"required"`
	Query string `json:"query" validate:"required"`
}

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// newIntentValidator builds the boundary validator with the "handle"
// rule for usernames: letters, digits and underscore only.
func newIntentValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return handlePattern.MatchString(fl.Field().String())
	})
	return v
}

// decodeIntent unmarshals and validates an intent payload in one step.
// Every failure is reported as a validation error, never as a crash.
func decodeIntent[T any](v *validator.Validate, raw json.RawMessage) (T, error) {
	var payload T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return payload, fmt.Errorf("%w: malformed payload: %v", ErrValidation, err)
		}
	}
	if err := v.Struct(&payload); err != nil {
		return payload, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return payload, nil
}
