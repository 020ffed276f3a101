package model

import "strings"

// Canonical role vocabulary shared by all three backends. Native roles are
// folded into these names so selectors written on one OS resolve on another.
const (
	RoleApplication = "application"
	RoleWindow      = "window"
	RoleDialog      = "dialog"
	RolePane        = "pane"
	RoleGroup       = "group"
	RoleButton      = "button"
	RoleCheckBox    = "checkbox"
	RoleRadio       = "radio"
	RoleSwitch      = "switch"
	RoleComboBox    = "combobox"
	RoleSlider      = "slider"
	RoleSpinner     = "spinner"
	RoleTextField   = "textfield"
	RoleText        = "text"
	RoleDocument    = "document"
	RoleLink        = "link"
	RoleImage       = "image"
	RoleMenu        = "menu"
	RoleMenuBar     = "menubar"
	RoleMenuItem    = "menuitem"
	RoleTab         = "tab"
	RoleTabList     = "tablist"
	RoleList        = "list"
	RoleListItem    = "listitem"
	RoleTable       = "table"
	RoleRow         = "row"
	RoleCell        = "cell"
	RoleTree        = "tree"
	RoleTreeItem    = "treeitem"
	RoleScrollBar   = "scrollbar"
	RoleScrollArea  = "scrollarea"
	RoleToolBar     = "toolbar"
	RoleStatusBar   = "statusbar"
	RoleTitleBar    = "titlebar"
	RoleProgressBar = "progressbar"
	RoleSeparator   = "separator"
	RoleToolTip     = "tooltip"
	RoleWeb         = "web"
)

// windowsRoles maps UI Automation control type names to canonical roles.
var windowsRoles = map[string]string{
	"Button":      RoleButton,
	"Calendar":    RoleTable,
	"CheckBox":    RoleCheckBox,
	"ComboBox":    RoleComboBox,
	"Custom":      RoleGroup,
	"DataGrid":    RoleTable,
	"DataItem":    RoleRow,
	"Document":    RoleDocument,
	"Edit":        RoleTextField,
	"Group":       RoleGroup,
	"Header":      RoleRow,
	"HeaderItem":  RoleCell,
	"Hyperlink":   RoleLink,
	"Image":       RoleImage,
	"List":        RoleList,
	"ListItem":    RoleListItem,
	"Menu":        RoleMenu,
	"MenuBar":     RoleMenuBar,
	"MenuItem":    RoleMenuItem,
	"Pane":        RolePane,
	"ProgressBar": RoleProgressBar,
	"RadioButton": RoleRadio,
	"ScrollBar":   RoleScrollBar,
	"Separator":   RoleSeparator,
	"Slider":      RoleSlider,
	"Spinner":     RoleSpinner,
	"SplitButton": RoleButton,
	"StatusBar":   RoleStatusBar,
	"Tab":         RoleTabList,
	"TabItem":     RoleTab,
	"Table":       RoleTable,
	"Text":        RoleText,
	"Thumb":       RoleSlider,
	"TitleBar":    RoleTitleBar,
	"ToolBar":     RoleToolBar,
	"ToolTip":     RoleToolTip,
	"Tree":        RoleTree,
	"TreeItem":    RoleTreeItem,
	"Window":      RoleWindow,
}

// darwinRoles maps macOS AXRole values to canonical roles.
var darwinRoles = map[string]string{
	"AXApplication":        RoleApplication,
	"AXWindow":             RoleWindow,
	"AXSheet":              RoleDialog,
	"AXDrawer":             RolePane,
	"AXGroup":              RoleGroup,
	"AXSplitGroup":         RoleGroup,
	"AXButton":             RoleButton,
	"AXPopUpButton":        RoleComboBox,
	"AXMenuButton":         RoleButton,
	"AXCheckBox":           RoleCheckBox,
	"AXRadioButton":        RoleRadio,
	"AXRadioGroup":         RoleGroup,
	"AXSwitch":             RoleSwitch,
	"AXComboBox":           RoleComboBox,
	"AXSlider":             RoleSlider,
	"AXIncrementor":        RoleSpinner,
	"AXTextField":          RoleTextField,
	"AXSecureTextField":    RoleTextField,
	"AXTextArea":           RoleTextField,
	"AXStaticText":         RoleText,
	"AXHeading":            RoleText,
	"AXDocument":           RoleDocument,
	"AXLink":               RoleLink,
	"AXImage":              RoleImage,
	"AXMenu":               RoleMenu,
	"AXMenuBar":            RoleMenuBar,
	"AXMenuItem":           RoleMenuItem,
	"AXMenuBarItem":        RoleMenuItem,
	"AXTabGroup":           RoleTabList,
	"AXList":               RoleList,
	"AXOutline":            RoleTree,
	"AXOutlineRow":         RoleTreeItem,
	"AXTable":              RoleTable,
	"AXRow":                RoleRow,
	"AXColumn":             RoleCell,
	"AXCell":               RoleCell,
	"AXScrollBar":          RoleScrollBar,
	"AXScrollArea":         RoleScrollArea,
	"AXToolbar":            RoleToolBar,
	"AXProgressIndicator":  RoleProgressBar,
	"AXDisclosureTriangle": RoleButton,
	"AXWebArea":            RoleWeb,
	"AXSplitter":           RoleSeparator,
	"AXValueIndicator":     RoleText,
}

// linuxRoles maps AT-SPI role names (as reported by GetRoleName) to
// canonical roles.
var linuxRoles = map[string]string{
	"application":     RoleApplication,
	"frame":           RoleWindow,
	"window":          RoleWindow,
	"dialog":          RoleDialog,
	"alert":           RoleDialog,
	"file chooser":    RoleDialog,
	"panel":           RolePane,
	"filler":          RoleGroup,
	"section":         RoleGroup,
	"push button":     RoleButton,
	"toggle button":   RoleSwitch,
	"check box":       RoleCheckBox,
	"radio button":    RoleRadio,
	"combo box":       RoleComboBox,
	"slider":          RoleSlider,
	"spin button":     RoleSpinner,
	"entry":           RoleTextField,
	"password text":   RoleTextField,
	"text":            RoleText,
	"label":           RoleText,
	"static":          RoleText,
	"heading":         RoleText,
	"paragraph":       RoleText,
	"document frame":  RoleDocument,
	"document web":    RoleWeb,
	"link":            RoleLink,
	"image":           RoleImage,
	"icon":            RoleImage,
	"menu":            RoleMenu,
	"menu bar":        RoleMenuBar,
	"menu item":       RoleMenuItem,
	"check menu item": RoleMenuItem,
	"radio menu item": RoleMenuItem,
	"page tab":        RoleTab,
	"page tab list":   RoleTabList,
	"list":            RoleList,
	"list box":        RoleList,
	"list item":       RoleListItem,
	"table":           RoleTable,
	"table row":       RoleRow,
	"table cell":      RoleCell,
	"tree":            RoleTree,
	"tree table":      RoleTree,
	"tree item":       RoleTreeItem,
	"scroll bar":      RoleScrollBar,
	"scroll pane":     RoleScrollArea,
	"tool bar":        RoleToolBar,
	"status bar":      RoleStatusBar,
	"progress bar":    RoleProgressBar,
	"separator":       RoleSeparator,
	"tool tip":        RoleToolTip,
}

// NormalizeRole folds a native role name into the canonical vocabulary.
// Unknown roles are returned lowercased with separators removed so selector
// matching still works against whatever the application reported.
func NormalizeRole(native string) string {
	if native == "" {
		return RoleGroup
	}
	if r, ok := windowsRoles[native]; ok {
		return r
	}
	if r, ok := darwinRoles[native]; ok {
		return r
	}
	lower := strings.ToLower(native)
	if r, ok := linuxRoles[lower]; ok {
		return r
	}
	cleaned := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(lower)
	return strings.TrimPrefix(cleaned, "ax")
}

// MetaRoles maps meta-role names to the concrete roles they expand to.
// "interactive" matches roles that are likely to accept user input.
var MetaRoles = map[string][]string{
	"interactive": {
		RoleButton, RoleCheckBox, RoleRadio, RoleSwitch, RoleComboBox,
		RoleSlider, RoleSpinner, RoleTextField, RoleLink, RoleMenuItem,
		RoleTab, RoleListItem, RoleTreeItem,
	},
}

// ExpandRoles expands any meta-roles in the given list to their concrete
// roles. Non-meta roles are passed through unchanged. Duplicates are removed.
func ExpandRoles(roles []string) []string {
	seen := make(map[string]bool, len(roles))
	var expanded []string
	for _, r := range roles {
		if concrete, ok := MetaRoles[r]; ok {
			for _, c := range concrete {
				if !seen[c] {
					seen[c] = true
					expanded = append(expanded, c)
				}
			}
		} else if !seen[r] {
			seen[r] = true
			expanded = append(expanded, r)
		}
	}
	return expanded
}

// IsInteractive reports whether the canonical role accepts user input.
func IsInteractive(role string) bool {
	for _, r := range MetaRoles["interactive"] {
		if r == role {
			return true
		}
	}
	return false
}

// IsContainer reports whether the canonical role is a structural container
// whose own value/description rarely carry information.
func IsContainer(role string) bool {
	switch role {
	case RoleApplication, RoleWindow, RoleDialog, RolePane, RoleGroup,
		RoleScrollArea, RoleList, RoleTable, RoleTree, RoleToolBar,
		RoleMenuBar, RoleTabList, RoleWeb:
		return true
	}
	return false
}

// HasTextValue reports whether the canonical role carries a current value
// worth reading (text fields, ranges, selections).
func HasTextValue(role string) bool {
	switch role {
	case RoleTextField, RoleText, RoleComboBox, RoleSlider, RoleSpinner,
		RoleProgressBar, RoleDocument:
		return true
	}
	return false
}

// HasToggleState reports whether the canonical role has an on/off or
// selected state.
func HasToggleState(role string) bool {
	switch role {
	case RoleCheckBox, RoleRadio, RoleSwitch, RoleTab, RoleMenuItem,
		RoleListItem, RoleTreeItem:
		return true
	}
	return false
}
