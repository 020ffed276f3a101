package platform

import (
	"strings"
	"testing"

	"github.com/deskdriver/deskdriver/internal/model"
)

func TestParseSelector_ProcessRoleAndName(t *testing.T) {
	sel, err := ParseSelector("process:Slack >> role:Button|name:Save")
	if err != nil {
		t.Fatalf("ParseSelector: %v", err)
	}
	if sel.Process != "Slack" {
		t.Errorf("Process = %q, want %q", sel.Process, "Slack")
	}
	if len(sel.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(sel.Segments))
	}
	seg := sel.Segments[0]
	if seg.Role != "Button" {
		t.Errorf("Role = %q, want %q", seg.Role, "Button")
	}
	if seg.Name != "Save" {
		t.Errorf("Name = %q, want %q", seg.Name, "Save")
	}
}

func TestParseSelector_DescendantChain(t *testing.T) {
	sel, err := ParseSelector("process:Mail >> role:window >> role:toolbar >> role:button|name:Send")
	if err != nil {
		t.Fatalf("ParseSelector: %v", err)
	}
	if len(sel.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(sel.Segments))
	}
	if sel.Segments[2].Name != "Send" {
		t.Errorf("last segment name = %q", sel.Segments[2].Name)
	}
}

func TestParseSelector_BareWordIsRole(t *testing.T) {
	sel, err := ParseSelector("process:Notes >> button")
	if err != nil {
		t.Fatalf("ParseSelector: %v", err)
	}
	if sel.Segments[0].Role != "button" {
		t.Errorf("bare word should parse as role, got %+v", sel.Segments[0])
	}
}

func TestParseSelector_TextAndNth(t *testing.T) {
	sel, err := ParseSelector("process:App >> role:listitem|text:invoice|nth:2")
	if err != nil {
		t.Fatalf("ParseSelector: %v", err)
	}
	seg := sel.Segments[0]
	if seg.Text != "invoice" || seg.Nth != 2 {
		t.Errorf("parsed segment = %+v", seg)
	}
}

func TestParseSelector_Errors(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"process:App >> ",
		"process:App",
		"process: >> role:button",
		"process:App >> bogus:value",
		"process:App >> nth:x",
		"process:App >> nth:-1",
		"process:App >> id:abc",
		"process:App >> |",
	}
	for _, input := range cases {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseSelector(input); !IsCode(err, ErrCodeInvalidArgument) {
				t.Errorf("ParseSelector(%q) should be INVALID_ARGUMENT, got %v", input, err)
			}
		})
	}
}

func TestSelector_MissingProcess(t *testing.T) {
	sel, err := ParseSelector("role:Button|name:Save")
	if err != nil {
		t.Fatalf("selector without process should still parse: %v", err)
	}
	_, err = sel.ResolveProcess("")
	if !IsCode(err, ErrCodeInvalidArgument) {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
	if !strings.Contains(err.Error(), "Missing process") {
		t.Errorf("error should name the missing process, got %q", err.Error())
	}

	proc, err := sel.ResolveProcess("Slack")
	if err != nil || proc != "Slack" {
		t.Errorf("hint should satisfy resolution, got %q, %v", proc, err)
	}
}

func TestSelector_ProcessPID(t *testing.T) {
	sel, _ := ParseSelector("process:4242 >> role:button")
	pid, ok := sel.ProcessPID()
	if !ok || pid != 4242 {
		t.Errorf("ProcessPID = %d, %v; want 4242, true", pid, ok)
	}

	sel, _ = ParseSelector("process:Finder >> role:button")
	if _, ok := sel.ProcessPID(); ok {
		t.Error("non-numeric process should not read as a pid")
	}
}

func TestSelector_StringRoundTrip(t *testing.T) {
	inputs := []string{
		"process:Slack >> role:Button|name:Save",
		"process:Mail >> role:window >> role:button|name:Send",
		"role:listitem|text:invoice|nth:2",
		"process:App >> role:textfield|name:Search >> role:button",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			first, err := ParseSelector(input)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			second, err := ParseSelector(first.String())
			if err != nil {
				t.Fatalf("reparse of %q: %v", first.String(), err)
			}
			if first.String() != second.String() {
				t.Errorf("round trip changed selector: %q vs %q", first.String(), second.String())
			}
		})
	}
}

func TestCriteria_Matching(t *testing.T) {
	attrs := model.Attributes{
		Role:        model.RoleButton,
		Name:        "Save",
		Description: "Saves the current document",
	}

	match := Criteria{Role: "Button", Name: "Save", Nth: -1}
	if !match.matchesAttrs(attrs) {
		t.Error("role is matched through normalization, Button should match button")
	}

	if (Criteria{Name: "save", Nth: -1}).matchesAttrs(attrs) {
		t.Error("name matching is exact, save should not match Save")
	}

	if !(Criteria{Text: "SAVES THE", Nth: -1}).matchesAttrs(attrs) {
		t.Error("text matching is a case-insensitive substring")
	}

	if (Criteria{Role: "textfield", Nth: -1}).matchesAttrs(attrs) {
		t.Error("wrong role must not match")
	}
}
