package datapack

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func mustDecode(t *testing.T, s string) any {
	t.Helper()
	v, err := decodeJSON([]byte(s))
	if err != nil {
		t.Fatalf("failed to decode %s: %v", s, err)
	}
	return v
}

func TestApplyAction(t *testing.T) {
	base := `{"max_level":1,"effects":{"minecraft:damage":[{"value":1}]},"tags":["a","b"]}`

	tests := []struct {
		name   string
		action func() (Action, error)
		want   string
	}{
		{
			name:   "set top-level value",
			action: func() (Action, error) { return SetValue([]string{"max_level"}, 5) },
			want:   `{"max_level":5,"effects":{"minecraft:damage":[{"value":1}]},"tags":["a","b"]}`,
		},
		{
			name:   "set nested list entry",
			action: func() (Action, error) { return SetValue(ParsePath("effects.minecraft:damage.0.value"), 3) },
			want:   `{"max_level":1,"effects":{"minecraft:damage":[{"value":3}]},"tags":["a","b"]}`,
		},
		{
			name:   "set creates missing objects",
			action: func() (Action, error) { return SetValue([]string{"slots", "main"}, "hand") },
			want:   `{"max_level":1,"effects":{"minecraft:damage":[{"value":1}]},"tags":["a","b"],"slots":{"main":"hand"}}`,
		},
		{
			name:   "remove key",
			action: func() (Action, error) { return RemoveValue([]string{"effects"}), nil },
			want:   `{"max_level":1,"tags":["a","b"]}`,
		},
		{
			name:   "remove list index",
			action: func() (Action, error) { return RemoveValue([]string{"tags", "0"}), nil },
			want:   `{"max_level":1,"effects":{"minecraft:damage":[{"value":1}]},"tags":["b"]}`,
		},
		{
			name:   "append to list",
			action: func() (Action, error) { return AppendValue([]string{"tags"}, "c") },
			want:   `{"max_level":1,"effects":{"minecraft:damage":[{"value":1}]},"tags":["a","b","c"]}`,
		},
		{
			name:   "append creates list",
			action: func() (Action, error) { return AppendValue([]string{"exclusive"}, "x") },
			want:   `{"max_level":1,"effects":{"minecraft:damage":[{"value":1}]},"tags":["a","b"],"exclusive":["x"]}`,
		},
		{
			name:   "toggle removes present value",
			action: func() (Action, error) { return ToggleValue([]string{"tags"}, "a") },
			want:   `{"max_level":1,"effects":{"minecraft:damage":[{"value":1}]},"tags":["b"]}`,
		},
		{
			name:   "toggle adds missing value",
			action: func() (Action, error) { return ToggleValue([]string{"tags"}, "z") },
			want:   `{"max_level":1,"effects":{"minecraft:damage":[{"value":1}]},"tags":["a","b","z"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := mustDecode(t, base)
			action, err := tt.action()
			if err != nil {
				t.Fatalf("failed to build action: %v", err)
			}

			got, err := applyAction(data, action)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !reflect.DeepEqual(got, mustDecode(t, tt.want)) {
				out, _ := json.Marshal(got)
				t.Errorf("expected %s, got %s", tt.want, out)
			}
			if !reflect.DeepEqual(data, mustDecode(t, base)) {
				t.Error("input data was mutated")
			}
		})
	}
}

func TestApplyActionErrors(t *testing.T) {
	data := mustDecode(t, `{"max_level":1,"tags":["a"]}`)

	setIndex, _ := SetValue([]string{"tags", "3"}, "x")
	setScalar, _ := SetValue([]string{"max_level", "inner"}, 1)
	appendScalar, _ := AppendValue([]string{"max_level"}, 1)

	tests := []struct {
		name    string
		action  Action
		wantErr error
	}{
		{name: "index out of range", action: setIndex, wantErr: ErrInvalidPath},
		{name: "descend into scalar", action: setScalar, wantErr: ErrInvalidPath},
		{name: "append to scalar", action: appendScalar, wantErr: ErrInvalidPath},
		{name: "remove missing key", action: RemoveValue([]string{"missing"}), wantErr: ErrInvalidPath},
		{name: "remove without path", action: RemoveValue(nil)},
		{name: "unknown type", action: Action{Type: "rename"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := applyAction(data, tt.action)
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParsePath(t *testing.T) {
	if got := ParsePath(""); got != nil {
		t.Errorf("expected nil path, got %v", got)
	}
	if got := ParsePath("a.0.b"); !reflect.DeepEqual(got, []string{"a", "0", "b"}) {
		t.Errorf("unexpected path %v", got)
	}
}
