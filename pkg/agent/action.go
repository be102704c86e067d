package agent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/germanamz/skillbridge/pkg/chats/content"
	"github.com/germanamz/skillbridge/pkg/tools/basetools"
)

// ActionMarker introduces a tool call in the text action protocol.
const ActionMarker = "Action:"

// ErrMalformedAction is returned when an Action: block cannot be decoded.
var ErrMalformedAction = errors.New("agent: malformed action")

type action struct {
	Tool      string          `json:"tool"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ParseAction extracts the tool call announced in text. Markers are tried
// from last to first and the first one followed by a decodable action
// wins, so "Action:" inside an argument string does not hide the real call.
// It reports false when the text contains no marker.
func ParseAction(text string) (content.ToolCall, bool, error) {
	var lastMarkerErr error

	for end := len(text); ; {
		idx := strings.LastIndex(text[:end], ActionMarker)
		if idx < 0 {
			break
		}
		end = idx

		tc, err := decodeAction(text[idx+len(ActionMarker):])
		if err == nil {
			return tc, true, nil
		}
		if lastMarkerErr == nil {
			lastMarkerErr = err
		}
	}

	if lastMarkerErr != nil {
		return content.ToolCall{}, true, lastMarkerErr
	}
	return content.ToolCall{}, false, nil
}

func decodeAction(rest string) (content.ToolCall, error) {
	start := strings.IndexByte(rest, '{')
	if start < 0 {
		return content.ToolCall{}, fmt.Errorf("%w: no JSON object after %s", ErrMalformedAction, ActionMarker)
	}

	var a action
	dec := json.NewDecoder(strings.NewReader(rest[start:]))
	if err := dec.Decode(&a); err != nil {
		return content.ToolCall{}, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}

	name := a.Tool
	if name == "" {
		name = a.Name
	}
	if name == "" {
		return content.ToolCall{}, fmt.Errorf("%w: missing \"tool\"", ErrMalformedAction)
	}

	args, err := normalizeArguments(name, a.Arguments)
	if err != nil {
		return content.ToolCall{}, err
	}

	return content.ToolCall{ID: "call_" + uuid.NewString(), Name: name, Arguments: string(args)}, nil
}

// normalizeArguments accepts an object, null, or for final_answer a bare
// string which becomes {"answer": ...}.
func normalizeArguments(tool string, raw json.RawMessage) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return json.RawMessage(`{}`), nil
	case raw[0] == '{':
		return raw, nil
	case raw[0] == '"' && tool == basetools.FinalAnswerName:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedAction, err)
		}
		return json.Marshal(map[string]string{"answer": s})
	default:
		return nil, fmt.Errorf("%w: \"arguments\" must be a JSON object", ErrMalformedAction)
	}
}
