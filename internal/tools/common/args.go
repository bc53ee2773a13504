package common

import (
	"strings"
)

// RoomIDFromArgs returns the room_id argument, or "".
func RoomIDFromArgs(args map[string]any) string {
	return StringArg(args, "room_id")
}

// StringArg returns a string argument with surrounding space trimmed, or ""
// when it is missing or not a string.
func StringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return strings.TrimSpace(s)
}

// BoolArg returns a boolean argument. Strings "true" and "1" count as true so
// clients that stringify everything still work.
func BoolArg(args map[string]any, name string, def bool) bool {
	switch v := args[name].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return def
}

// StringListArg accepts either a JSON array of strings or a comma separated
// string. Blank entries are dropped.
func StringListArg(args map[string]any, name string) []string {
	var raw []string
	switch v := args[name].(type) {
	case string:
		raw = strings.Split(v, ",")
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ObjectArg returns a JSON object argument, or nil.
func ObjectArg(args map[string]any, name string) map[string]any {
	m, _ := args[name].(map[string]any)
	return m
}
