package platform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deskdriver/deskdriver/internal/model"
)

// Selector is a parsed element query: an optional process scope followed by
// a chain of descendant segments. The textual form is
//
//	process:<name-or-pid> >> role:<Role>|name:<Name> >> text:<substring>
//
// ">>" separates descendant segments and "|" combines criteria on one
// segment. A selector is a pure value; resolution happens in the Locator.
type Selector struct {
	// Process scopes the chain to one application, by name or pid.
	// Empty means the caller must supply a process hint out of band.
	Process string

	// Segments apply left to right, each matching a descendant of the
	// previous match.
	Segments []Criteria
}

// Criteria is the per-segment match condition. Role and Name match exactly
// (roles are folded through the canonical vocabulary first), Text matches
// as a case-insensitive substring over the textual attributes, ID matches a
// capture id, and Nth picks one match by traversal index.
type Criteria struct {
	Role string
	Name string
	Text string
	ID   int64 // 0 = unset
	Nth  int   // -1 = unset
}

// matchesAttrs applies the criteria to captured attributes. Nth and ID are
// positional and resolved by the caller, not here.
func (c Criteria) matchesAttrs(attrs model.Attributes) bool {
	if c.Role != "" && model.NormalizeRole(c.Role) != attrs.Role {
		return false
	}
	if c.Name != "" && c.Name != attrs.Name && c.Name != attrs.Label {
		return false
	}
	if c.Text != "" {
		lower := strings.ToLower(c.Text)
		if !strings.Contains(strings.ToLower(attrs.Name), lower) &&
			!strings.Contains(strings.ToLower(attrs.Label), lower) &&
			!strings.Contains(strings.ToLower(attrs.Value), lower) &&
			!strings.Contains(strings.ToLower(attrs.Description), lower) {
			return false
		}
	}
	return true
}

// empty reports whether the criteria constrain nothing.
func (c Criteria) empty() bool {
	return c.Role == "" && c.Name == "" && c.Text == "" && c.ID == 0 && c.Nth < 0
}

// String renders one segment in canonical order.
func (c Criteria) String() string {
	var parts []string
	if c.Role != "" {
		parts = append(parts, "role:"+c.Role)
	}
	if c.Name != "" {
		parts = append(parts, "name:"+c.Name)
	}
	if c.Text != "" {
		parts = append(parts, "text:"+c.Text)
	}
	if c.ID != 0 {
		parts = append(parts, "id:"+strconv.FormatInt(c.ID, 10))
	}
	if c.Nth >= 0 {
		parts = append(parts, "nth:"+strconv.Itoa(c.Nth))
	}
	return strings.Join(parts, "|")
}

// ParseSelector parses the textual selector grammar.
func ParseSelector(s string) (*Selector, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, InvalidArgument("empty selector")
	}

	sel := &Selector{}
	segments := strings.Split(trimmed, ">>")
	for i, raw := range segments {
		seg := strings.TrimSpace(raw)
		if seg == "" {
			return nil, InvalidArgument(fmt.Sprintf("empty segment in selector %q", s))
		}

		if i == 0 {
			if rest, ok := strings.CutPrefix(seg, "process:"); ok {
				sel.Process = strings.TrimSpace(rest)
				if sel.Process == "" {
					return nil, InvalidArgument("empty process in selector")
				}
				continue
			}
		}

		crit, err := parseCriteria(seg)
		if err != nil {
			return nil, err
		}
		sel.Segments = append(sel.Segments, crit)
	}

	if len(sel.Segments) == 0 {
		return nil, InvalidArgument(fmt.Sprintf("selector %q has no match criteria", s))
	}
	return sel, nil
}

func parseCriteria(seg string) (Criteria, error) {
	crit := Criteria{Nth: -1}
	for _, raw := range strings.Split(seg, "|") {
		part := strings.TrimSpace(raw)
		if part == "" {
			return crit, InvalidArgument(fmt.Sprintf("empty criterion in segment %q", seg))
		}

		key, value, found := strings.Cut(part, ":")
		if !found {
			// bare word is role shorthand
			crit.Role = part
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "role":
			crit.Role = value
		case "name":
			crit.Name = value
		case "text":
			crit.Text = value
		case "id":
			id, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return crit, InvalidArgument(fmt.Sprintf("invalid id %q in selector", value))
			}
			crit.ID = id
		case "nth":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return crit, InvalidArgument(fmt.Sprintf("invalid nth %q in selector", value))
			}
			crit.Nth = n
		default:
			return crit, InvalidArgument(fmt.Sprintf("unknown selector key %q", key))
		}
	}
	if crit.empty() {
		return crit, InvalidArgument(fmt.Sprintf("segment %q constrains nothing", seg))
	}
	return crit, nil
}

// String renders the selector back to its canonical textual form.
func (s *Selector) String() string {
	var parts []string
	if s.Process != "" {
		parts = append(parts, "process:"+s.Process)
	}
	for _, c := range s.Segments {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " >> ")
}

// ResolveProcess returns the selector's process scope, falling back to the
// caller's hint. A selector with neither fails; every resolution needs an
// application to search under.
func (s *Selector) ResolveProcess(hint string) (string, error) {
	if s.Process != "" {
		return s.Process, nil
	}
	if hint != "" {
		return hint, nil
	}
	return "", InvalidArgument("Missing process")
}

// ProcessPID interprets the process scope as a pid when it is numeric.
func (s *Selector) ProcessPID() (int32, bool) {
	if s.Process == "" {
		return 0, false
	}
	pid, err := strconv.ParseInt(s.Process, 10, 32)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return int32(pid), true
}
