package platform

import (
	"context"
	"fmt"
	"time"
)

// DefaultPollInterval is the sleep between locator resolution attempts
// while waiting for an element to appear.
const DefaultPollInterval = 100 * time.Millisecond

// DefaultSearchDepth bounds how deep one resolution pass descends per
// segment when the caller does not say otherwise.
const DefaultSearchDepth = 0 // unlimited

// NativeFinder is an optional backend fast path: engines whose native API
// can search with conditions (UI Automation FindAll) implement it so the
// locator avoids walking child-by-child over the process boundary.
type NativeFinder interface {
	FindAll(ctx context.Context, crit Criteria, maxDepth int) ([]Native, error)
}

// Locator is a pending search: a parsed selector plus the scope to search
// under. It is created per query and holds no state beyond that.
type Locator struct {
	eng  Engine
	sel  *Selector
	root *Element
}

// NewLocator builds a locator over an explicit root. A nil root resolves
// the selector's process scope at query time.
func NewLocator(eng Engine, sel *Selector, root *Element) *Locator {
	return &Locator{eng: eng, sel: sel, root: root}
}

// First resolves the selector, polling until a match appears or the timeout
// elapses. Matches are returned in traversal order, so the first match is
// deterministic for an unchanged UI. A zero timeout means one attempt.
func (l *Locator) First(ctx context.Context, timeout time.Duration) (*Element, error) {
	deadline := time.Now().Add(timeout)
	for {
		matches, err := l.resolve(ctx, 1, DefaultSearchDepth)
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 {
			return matches[0], nil
		}

		remaining := time.Until(deadline)
		if timeout <= 0 || remaining <= 0 {
			return nil, ElementNotFound(fmt.Sprintf("no element matching %q within %s", l.sel, timeout))
		}

		sleep := DefaultPollInterval
		if remaining < sleep {
			sleep = remaining
		}
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return nil, ElementNotFound(fmt.Sprintf("no element matching %q before cancellation", l.sel)).WithCause(ctx.Err())
		}
	}
}

// All resolves every match in one pass, without polling. maxDepth bounds
// per-segment descent; zero means unlimited.
func (l *Locator) All(ctx context.Context, maxDepth int) ([]*Element, error) {
	return l.resolve(ctx, 0, maxDepth)
}

// resolve runs the chain left to right: each segment matches descendants of
// the previous segment's matches. limit stops the final segment early;
// zero collects everything.
func (l *Locator) resolve(ctx context.Context, limit, maxDepth int) ([]*Element, error) {
	root, err := l.resolveRoot(ctx)
	if err != nil {
		return nil, err
	}

	current := []Native{root.Native()}
	for i, seg := range l.sel.Segments {
		if seg.ID != 0 {
			return nil, InvalidArgument("id: matches captured tree nodes, not live searches")
		}

		segLimit := 0
		if i == len(l.sel.Segments)-1 && seg.Nth < 0 {
			segLimit = limit
		}

		var next []Native
		for _, scope := range current {
			found, err := findDescendants(ctx, scope, seg, maxDepth, segLimit-len(next))
			if err != nil {
				return nil, err
			}
			next = append(next, found...)
			if segLimit > 0 && len(next) >= segLimit {
				next = next[:segLimit]
				break
			}
		}

		if seg.Nth >= 0 {
			if seg.Nth >= len(next) {
				next = nil
			} else {
				next = next[seg.Nth : seg.Nth+1]
			}
		}
		if len(next) == 0 {
			return nil, nil
		}
		current = next
	}

	matches := make([]*Element, 0, len(current))
	for _, n := range current {
		matches = append(matches, WrapElement(l.eng, n))
	}
	return matches, nil
}

// resolveRoot picks the search scope: the explicit root when given, else
// the application named by the selector's process segment.
func (l *Locator) resolveRoot(ctx context.Context) (*Element, error) {
	if l.root != nil {
		return l.root, nil
	}
	if l.sel.Process == "" {
		return nil, InvalidArgument("Missing process")
	}
	if pid, ok := l.sel.ProcessPID(); ok {
		return l.eng.ApplicationByPID(ctx, pid, 0)
	}
	return l.eng.ApplicationByName(ctx, l.sel.Process)
}

// findDescendants collects descendants of scope matching the criteria, in
// breadth-first traversal order. limit <= 0 collects everything. The scope
// itself is not a candidate; segments match strict descendants.
func findDescendants(ctx context.Context, scope Native, crit Criteria, maxDepth, limit int) ([]Native, error) {
	if finder, ok := scope.(NativeFinder); ok {
		found, err := finder.FindAll(ctx, crit, maxDepth)
		if err == nil {
			if limit > 0 && len(found) > limit {
				found = found[:limit]
			}
			return found, nil
		}
		if !IsCode(err, ErrCodeUnsupportedOperation) {
			return nil, err
		}
		// fall through to the generic walk
	}

	mode := PropertyModeFast
	if crit.Text != "" {
		mode = PropertyModeComplete
	}

	type queued struct {
		n     Native
		depth int
	}
	queue := []queued{{scope, 0}}
	var matches []Native

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return matches, nil
		}
		item := queue[0]
		queue = queue[1:]

		if maxDepth > 0 && item.depth >= maxDepth {
			continue
		}
		children, err := item.n.Children(ctx)
		if err != nil {
			// a subtree that died mid-walk is skipped, not fatal
			continue
		}
		for _, child := range children {
			attrs, err := child.Attributes(ctx, mode, false)
			if err == nil && crit.matchesAttrs(attrs) {
				matches = append(matches, child)
				if limit > 0 && len(matches) >= limit {
					return matches, nil
				}
			}
			queue = append(queue, queued{child, item.depth + 1})
		}
	}
	return matches, nil
}
