package dto

import (
	"bytes"
	"encoding/json"
)

// SkillVersion is the Kakao i skill response version.
const SkillVersion = "2.0"

// SkillRequest is the subset of the skill payload the server reads.
type SkillRequest struct {
	Action      SkillAction      `json:"action"`
	UserRequest SkillUserRequest `json:"userRequest"`
}

// SkillAction carries block parameters.
type SkillAction struct {
	Params map[string]any `json:"params"`
}

// SkillUserRequest identifies the chat user and optional callback.
type SkillUserRequest struct {
	User        SkillUser  `json:"user"`
	CallbackURL FlexString `json:"callbackUrl,omitempty"`
}

// SkillUser is the chat platform's opaque user.
type SkillUser struct {
	ID FlexString `json:"id"`
}

// FlexString decodes a JSON string, or the literal text of a number or
// boolean. Null, objects and arrays decode as "".
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*s = ""
		return nil
	}
	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
	case 'n', '{', '[':
		*s = ""
	default:
		*s = FlexString(data)
	}
	return nil
}

func (s FlexString) String() string { return string(s) }

// Param returns a string block parameter, or "" when absent or not a string.
func (r SkillRequest) Param(name string) string {
	if v, ok := r.Action.Params[name].(string); ok {
		return v
	}
	return ""
}

// SkillResponse is an immediate reply.
type SkillResponse struct {
	Version  string        `json:"version"`
	Template SkillTemplate `json:"template"`
}

// SkillTemplate holds outputs and optional quick replies.
type SkillTemplate struct {
	Outputs      []SkillOutput `json:"outputs"`
	QuickReplies []QuickReply  `json:"quickReplies,omitempty"`
}

// SkillOutput is one output bubble.
type SkillOutput struct {
	SimpleText SimpleText `json:"simpleText"`
}

// SimpleText is a plain text bubble.
type SimpleText struct {
	Text string `json:"text"`
}

// QuickReply is a suggestion button.
type QuickReply struct {
	Label       string `json:"label"`
	Action      string `json:"action"`
	MessageText string `json:"messageText"`
}

// CallbackAck tells the platform the answer arrives via callbackUrl.
type CallbackAck struct {
	Version     string           `json:"version"`
	UseCallback bool             `json:"useCallback"`
	Data        *CallbackAckData `json:"data,omitempty"`
}

// CallbackAckData is shown while the user waits.
type CallbackAckData struct {
	Text string `json:"text"`
}

// NewTextResponse builds a single simpleText reply.
func NewTextResponse(text string, quickReplies ...QuickReply) SkillResponse {
	return SkillResponse{
		Version: SkillVersion,
		Template: SkillTemplate{
			Outputs:      []SkillOutput{{SimpleText: SimpleText{Text: text}}},
			QuickReplies: quickReplies,
		},
	}
}

// NewCallbackAck builds a deferred acknowledgment. Empty text omits data.
func NewCallbackAck(text string) CallbackAck {
	ack := CallbackAck{Version: SkillVersion, UseCallback: true}
	if text != "" {
		ack.Data = &CallbackAckData{Text: text}
	}
	return ack
}

// NewMessageQuickReply builds a button that sends messageText when tapped.
func NewMessageQuickReply(label, messageText string) QuickReply {
	return QuickReply{Label: label, Action: "message", MessageText: messageText}
}
