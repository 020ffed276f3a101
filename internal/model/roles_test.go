package model

import "testing"

func TestNormalizeRole_Windows(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Button", RoleButton},
		{"Edit", RoleTextField},
		{"Text", RoleText},
		{"Hyperlink", RoleLink},
		{"CheckBox", RoleCheckBox},
		{"RadioButton", RoleRadio},
		{"ComboBox", RoleComboBox},
		{"TabItem", RoleTab},
		{"Tab", RoleTabList},
		{"DataGrid", RoleTable},
		{"Pane", RolePane},
		{"Window", RoleWindow},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeRole(tt.input); got != tt.want {
				t.Errorf("NormalizeRole(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeRole_Darwin(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"AXButton", RoleButton},
		{"AXStaticText", RoleText},
		{"AXTextField", RoleTextField},
		{"AXTextArea", RoleTextField},
		{"AXCheckBox", RoleCheckBox},
		{"AXPopUpButton", RoleComboBox},
		{"AXSheet", RoleDialog},
		{"AXWebArea", RoleWeb},
		{"AXOutline", RoleTree},
		{"AXWindow", RoleWindow},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeRole(tt.input); got != tt.want {
				t.Errorf("NormalizeRole(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeRole_Linux(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"push button", RoleButton},
		{"entry", RoleTextField},
		{"label", RoleText},
		{"check box", RoleCheckBox},
		{"menu item", RoleMenuItem},
		{"page tab", RoleTab},
		{"document web", RoleWeb},
		{"frame", RoleWindow},
		{"scroll pane", RoleScrollArea},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeRole(tt.input); got != tt.want {
				t.Errorf("NormalizeRole(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeRole_Unknown(t *testing.T) {
	if got := NormalizeRole("SomeVendorWidget"); got != "somevendorwidget" {
		t.Errorf("unknown role should lowercase passthrough, got %q", got)
	}
	if got := NormalizeRole("fancy custom role"); got != "fancycustomrole" {
		t.Errorf("unknown role should drop separators, got %q", got)
	}
	if got := NormalizeRole(""); got != RoleGroup {
		t.Errorf("empty role should map to group, got %q", got)
	}
}

func TestExpandRoles_Meta(t *testing.T) {
	expanded := ExpandRoles([]string{"interactive"})
	want := map[string]bool{RoleButton: true, RoleTextField: true, RoleCheckBox: true}
	got := make(map[string]bool, len(expanded))
	for _, r := range expanded {
		got[r] = true
	}
	for r := range want {
		if !got[r] {
			t.Errorf("interactive should expand to include %q", r)
		}
	}
	if got["interactive"] {
		t.Error("meta role itself should not remain in the expansion")
	}
}

func TestExpandRoles_Dedup(t *testing.T) {
	expanded := ExpandRoles([]string{RoleButton, "interactive", RoleButton})
	count := 0
	for _, r := range expanded {
		if r == RoleButton {
			count++
		}
	}
	if count != 1 {
		t.Errorf("button should appear once, got %d", count)
	}
}

func TestRoleClassification(t *testing.T) {
	if !IsInteractive(RoleButton) {
		t.Error("button should be interactive")
	}
	if IsInteractive(RoleGroup) {
		t.Error("group should not be interactive")
	}
	if !IsContainer(RoleScrollArea) {
		t.Error("scrollarea should be a container")
	}
	if IsContainer(RoleButton) {
		t.Error("button should not be a container")
	}
	if !HasTextValue(RoleTextField) {
		t.Error("textfield should carry a value")
	}
	if !HasToggleState(RoleCheckBox) {
		t.Error("checkbox should carry a toggle state")
	}
	if HasToggleState(RoleText) {
		t.Error("text should not carry a toggle state")
	}
}
