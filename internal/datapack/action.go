package datapack

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ActionType identifies an edit operation
type ActionType string

const (
	ActionSetValue      ActionType = "set_value"
	ActionRemoveValue   ActionType = "remove_value"
	ActionAppendValue   ActionType = "append_value"
	ActionToggleValue   ActionType = "toggle_value"
	ActionCreateElement ActionType = "create_element"
	ActionDeleteElement ActionType = "delete_element"
)

// Action is a serializable edit applied to one element
type Action struct {
	Type  ActionType      `json:"type"`
	Path  []string        `json:"path,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// SetValue builds an action that writes value at path
func SetValue(path []string, value any) (Action, error) {
	return valueAction(ActionSetValue, path, value)
}

// RemoveValue builds an action that deletes the value at path
func RemoveValue(path []string) Action {
	return Action{Type: ActionRemoveValue, Path: path}
}

// AppendValue builds an action that appends value to the list at path
func AppendValue(path []string, value any) (Action, error) {
	return valueAction(ActionAppendValue, path, value)
}

// ToggleValue builds an action that adds value to the list at path, or
// removes it when already present
func ToggleValue(path []string, value any) (Action, error) {
	return valueAction(ActionToggleValue, path, value)
}

func valueAction(t ActionType, path []string, value any) (Action, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return Action{}, fmt.Errorf("failed to encode action value: %w", err)
	}
	return Action{Type: t, Path: path, Value: raw}, nil
}

// ParsePath splits a dotted value path ("effects.0.type")
func ParsePath(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

// Validate checks that the action is well formed
func (a Action) Validate() error {
	switch a.Type {
	case ActionSetValue, ActionAppendValue, ActionToggleValue:
		if len(a.Value) == 0 {
			return fmt.Errorf("%s requires a value", a.Type)
		}
		if !json.Valid(a.Value) {
			return fmt.Errorf("%s value is not valid JSON", a.Type)
		}
	case ActionRemoveValue:
		if len(a.Path) == 0 {
			return fmt.Errorf("%s requires a path", a.Type)
		}
	case ActionCreateElement:
		if len(a.Value) == 0 || !json.Valid(a.Value) {
			return fmt.Errorf("%s requires a JSON value", a.Type)
		}
	case ActionDeleteElement:
	default:
		return fmt.Errorf("unknown action type: %q", a.Type)
	}
	return nil
}

// applyAction returns a new value tree; data is never mutated
func applyAction(data any, a Action) (any, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	root := cloneValue(data)

	switch a.Type {
	case ActionSetValue:
		v, err := decodeJSON(a.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to decode value: %w", err)
		}
		return setIn(root, a.Path, v)

	case ActionRemoveValue:
		return removeIn(root, a.Path)

	case ActionAppendValue, ActionToggleValue:
		v, err := decodeJSON(a.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to decode value: %w", err)
		}
		current, err := getIn(root, a.Path)
		if err != nil {
			return nil, err
		}
		var list []any
		switch c := current.(type) {
		case nil:
		case []any:
			list = c
		default:
			return nil, fmt.Errorf("%w: %s is not a list", ErrInvalidPath, strings.Join(a.Path, "."))
		}
		if a.Type == ActionToggleValue {
			for i, item := range list {
				if reflect.DeepEqual(item, v) {
					list = append(list[:i:i], list[i+1:]...)
					return setIn(root, a.Path, list)
				}
			}
		}
		return setIn(root, a.Path, append(list, v))
	}

	return nil, fmt.Errorf("action %s does not apply to element data", a.Type)
}

func setIn(node any, path []string, v any) (any, error) {
	if len(path) == 0 {
		return v, nil
	}
	key := path[0]

	switch n := node.(type) {
	case nil:
		child, err := setIn(nil, path[1:], v)
		if err != nil {
			return nil, err
		}
		return map[string]any{key: child}, nil
	case map[string]any:
		child, err := setIn(n[key], path[1:], v)
		if err != nil {
			return nil, err
		}
		n[key] = child
		return n, nil
	case []any:
		idx, err := listIndex(key, len(n))
		if err != nil {
			return nil, err
		}
		child, err := setIn(n[idx], path[1:], v)
		if err != nil {
			return nil, err
		}
		n[idx] = child
		return n, nil
	default:
		return nil, fmt.Errorf("%w: cannot descend into %T at %q", ErrInvalidPath, node, key)
	}
}

func getIn(node any, path []string) (any, error) {
	for _, key := range path {
		switch n := node.(type) {
		case nil:
			return nil, nil
		case map[string]any:
			node = n[key]
		case []any:
			idx, err := listIndex(key, len(n))
			if err != nil {
				return nil, err
			}
			node = n[idx]
		default:
			return nil, fmt.Errorf("%w: cannot descend into %T at %q", ErrInvalidPath, node, key)
		}
	}
	return node, nil
}

func removeIn(root any, path []string) (any, error) {
	parent, err := getIn(root, path[:len(path)-1])
	if err != nil {
		return nil, err
	}
	key := path[len(path)-1]

	switch p := parent.(type) {
	case map[string]any:
		if _, ok := p[key]; !ok {
			return nil, fmt.Errorf("%w: %s does not exist", ErrInvalidPath, strings.Join(path, "."))
		}
		delete(p, key)
		return root, nil
	case []any:
		idx, err := listIndex(key, len(p))
		if err != nil {
			return nil, err
		}
		return setIn(root, path[:len(path)-1], append(p[:idx:idx], p[idx+1:]...))
	default:
		return nil, fmt.Errorf("%w: %s does not exist", ErrInvalidPath, strings.Join(path, "."))
	}
}

func listIndex(key string, length int) (int, error) {
	idx, err := strconv.Atoi(key)
	if err != nil || idx < 0 || idx >= length {
		return 0, fmt.Errorf("%w: index %q out of range (length %d)", ErrInvalidPath, key, length)
	}
	return idx, nil
}
