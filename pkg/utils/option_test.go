package utils

import "testing"

func TestOption_GetString(t *testing.T) {
	opt := Option{"listen.language": "en-US", "listen.model": 42}

	if v, err := opt.GetString("listen.language"); err != nil || v != "en-US" {
		t.Errorf("expected en-US, got %q (err=%v)", v, err)
	}
	if _, err := opt.GetString("listen.model"); err == nil {
		t.Error("expected type error for non-string value")
	}
	if _, err := opt.GetString("missing"); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestOption_GetBool(t *testing.T) {
	opt := Option{"a": true, "b": "true", "c": "nope", "d": 1}

	if v, err := opt.GetBool("a"); err != nil || !v {
		t.Errorf("expected true, got %v (err=%v)", v, err)
	}
	if v, err := opt.GetBool("b"); err != nil || !v {
		t.Errorf("expected string true to parse, got %v (err=%v)", v, err)
	}
	if _, err := opt.GetBool("c"); err == nil {
		t.Error("expected parse error")
	}
	if _, err := opt.GetBool("d"); err == nil {
		t.Error("expected type error")
	}
}

func TestOption_GetInt(t *testing.T) {
	tests := []struct {
		name     string
		opt      Option
		expected int
		wantErr  bool
	}{
		{"int value", Option{"k": 7}, 7, false},
		{"float value", Option{"k": 7.0}, 7, false},
		{"string value", Option{"k": "7"}, 7, false},
		{"bad string", Option{"k": "seven"}, 0, true},
		{"missing", Option{}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.opt.GetInt("k")
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if err == nil && v != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, v)
			}
		})
	}
}

func TestOption_Merge(t *testing.T) {
	base := Option{"listen.language": "en-US", "listen.model": "nova"}
	merged := base.Merge(Option{"listen.model": "whisper-1"})

	if v, _ := merged.GetString("listen.model"); v != "whisper-1" {
		t.Errorf("override should win, got %q", v)
	}
	if v, _ := merged.GetString("listen.language"); v != "en-US" {
		t.Errorf("base value should survive, got %q", v)
	}
	if v, _ := base.GetString("listen.model"); v != "nova" {
		t.Errorf("base must not be mutated, got %q", v)
	}
}
