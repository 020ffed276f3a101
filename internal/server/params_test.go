package server

import "testing"

func TestStringParam(t *testing.T) {
	params := map[string]interface{}{"name": "Editor", "pid": 1234.0}
	if got := stringParam(params, "name", ""); got != "Editor" {
		t.Errorf("stringParam(name) = %q", got)
	}
	if got := stringParam(params, "pid", ""); got != "1234" {
		t.Errorf("stringParam should format numeric values, got %q", got)
	}
	if got := stringParam(params, "missing", "fallback"); got != "fallback" {
		t.Errorf("stringParam(missing) = %q", got)
	}
}

func TestIntParam(t *testing.T) {
	params := map[string]interface{}{"a": 7.0, "b": 7, "c": int64(7), "s": "7"}
	for _, key := range []string{"a", "b", "c"} {
		if got := intParam(params, key, 0); got != 7 {
			t.Errorf("intParam(%s) = %d", key, got)
		}
	}
	if got := intParam(params, "s", 3); got != 3 {
		t.Errorf("intParam should not coerce strings, got %d", got)
	}
	if got := intParam(params, "missing", 3); got != 3 {
		t.Errorf("intParam(missing) = %d", got)
	}
}

func TestBoolParam(t *testing.T) {
	params := map[string]interface{}{"on": true, "off": false, "s": "true"}
	if !boolParam(params, "on", false) {
		t.Error("boolParam(on) = false")
	}
	if boolParam(params, "off", true) {
		t.Error("boolParam(off) = true")
	}
	if boolParam(params, "s", false) {
		t.Error("boolParam should not coerce strings")
	}
	if !boolParam(params, "missing", true) {
		t.Error("boolParam(missing) should use the default")
	}
}

func TestFloatParam(t *testing.T) {
	params := map[string]interface{}{"a": 0.5, "b": 2}
	if got := floatParam(params, "a", 0); got != 0.5 {
		t.Errorf("floatParam(a) = %v", got)
	}
	if got := floatParam(params, "b", 0); got != 2 {
		t.Errorf("floatParam(b) = %v", got)
	}
	if got := floatParam(params, "missing", 1); got != 1 {
		t.Errorf("floatParam(missing) = %v", got)
	}
}
