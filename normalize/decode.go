package normalize

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"imchat/provider"
)

// DecodeMessage converts an untyped provider message object into a MessageDTO.
func DecodeMessage(raw map[string]any) (provider.MessageDTO, error) {
	var out provider.MessageDTO
	if err := decode(raw, &out); err != nil {
		return provider.MessageDTO{}, fmt.Errorf("decode message: %w", err)
	}
	return out, nil
}

// DecodeConversation converts an untyped provider conversation object into a ConversationDTO.
func DecodeConversation(raw map[string]any) (provider.ConversationDTO, error) {
	var out provider.ConversationDTO
	if err := decode(raw, &out); err != nil {
		return provider.ConversationDTO{}, fmt.Errorf("decode conversation: %w", err)
	}
	return out, nil
}

// DecodeMessages decodes a batch, stopping at the first malformed entry.
func DecodeMessages(raws []map[string]any) ([]provider.MessageDTO, error) {
	out := make([]provider.MessageDTO, 0, len(raws))
	for i, raw := range raws {
		msg, err := DecodeMessage(raw)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

// DecodeConversations decodes a batch, stopping at the first malformed entry.
func DecodeConversations(raws []map[string]any) ([]provider.ConversationDTO, error) {
	out := make([]provider.ConversationDTO, 0, len(raws))
	for i, raw := range raws {
		conv, err := DecodeConversation(raw)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, conv)
	}
	return out, nil
}

func decode(raw map[string]any, out any) error {
	if raw == nil {
		return fmt.Errorf("payload is nil")
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			jsonStringToStructHook(),
		),
	})
	if err != nil {
		return fmt.Errorf("new decoder: %w", err)
	}
	return dec.Decode(raw)
}

// jsonStringToStructHook accepts nested objects that arrive JSON-encoded as strings.
func jsonStringToStructHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Kind, data any) (any, error) {
		if from != reflect.String || to != reflect.Struct {
			return data, nil
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(data.(string)), &m); err == nil {
			return m, nil
		}
		return data, nil
	}
}
