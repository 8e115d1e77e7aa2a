// Package jsonutil decodes loosely typed JSON fields sent by the backend.
package jsonutil

import (
	"encoding/json"
	"strconv"
	"strings"
)

// MessageSeparator joins the entries of a list-valued message.
const MessageSeparator = "; "

// FlexibleString converts a backend "message"-style field to display text.
// Validation failures often arrive as a list of strings or of {"msg": ...}
// objects instead of one string; those entries are joined. null and empty
// input give "".
func FlexibleString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str)
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		if i, err := num.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return num.String()
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if s := FlexibleString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, MessageSeparator)
	}

	var obj struct {
		Msg     json.RawMessage `json:"msg"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if s := FlexibleString(obj.Message); s != "" {
			return s
		}
		if s := FlexibleString(obj.Msg); s != "" {
			return s
		}
	}

	return string(raw)
}
