package platform

import (
	"context"
	"runtime"
	"time"

	"github.com/deskdriver/deskdriver/internal/model"
)

// BuildTree captures the subtree under root as an immutable snapshot.
//
// The traversal is a budgeted depth-first walk: every native call gets its
// own PerOpTimeout deadline, so one hung control costs one timeout and a
// partial node instead of stalling the whole capture; the goroutine yields
// to the scheduler every YieldEvery nodes because a large tree is thousands
// of blocking calls back to back.
//
// When the surrounding context expires mid-walk the tree built so far is
// returned together with a Timeout error, so callers can still use the
// partial capture.
func BuildTree(ctx context.Context, root Native, cfg TreeBuildConfig) (*model.UINode, error) {
	cfg = cfg.normalized()

	if cfg.SettleDelay > 0 {
		select {
		case <-time.After(cfg.SettleDelay):
		case <-ctx.Done():
			return nil, TimeoutError("capture cancelled during settle delay").WithCause(ctx.Err())
		}
	}

	b := &treeBuilder{cfg: cfg}
	node := b.build(ctx, root, 0)
	if node == nil {
		return nil, TimeoutError("capture cancelled before the root was read").WithCause(ctx.Err())
	}
	if err := ctx.Err(); err != nil {
		return node, TimeoutError("capture deadline elapsed; tree is partial").WithCause(err)
	}
	return node, nil
}

type treeBuilder struct {
	cfg     TreeBuildConfig
	visited int
	nextID  int
}

// build reads one node and recurses into its children. It returns nil only
// when the overall context died before the node could be read at all.
func (b *treeBuilder) build(ctx context.Context, n Native, depth int) *model.UINode {
	if ctx.Err() != nil {
		return nil
	}

	b.visited++
	b.nextID++
	node := &model.UINode{ID: b.nextID}

	if b.visited%b.cfg.YieldEvery == 0 {
		runtime.Gosched()
	}

	node.Attributes = b.readAttributes(ctx, n)

	if b.cfg.MaxDepth != nil && depth >= *b.cfg.MaxDepth {
		return node
	}

	children := b.readChildren(ctx, n)
	for i, child := range children {
		if ctx.Err() != nil {
			break
		}
		if i > 0 && i%b.cfg.BatchSize == 0 {
			runtime.Gosched()
		}
		if childNode := b.build(ctx, child, depth+1); childNode != nil {
			node.Children = append(node.Children, *childNode)
		}
	}
	return node
}

// readAttributes captures a node's properties under the per-call deadline.
// A timed-out or failed read keeps whatever the backend filled in before
// the failure; a node with no role at all is recorded as a group so the
// tree shape survives.
func (b *treeBuilder) readAttributes(ctx context.Context, n Native) model.Attributes {
	callCtx, cancel := context.WithTimeout(ctx, b.cfg.PerOpTimeout)
	attrs, _ := n.Attributes(callCtx, b.cfg.Mode, b.cfg.IncludeAllBounds)
	cancel()

	if attrs.Role == "" {
		attrs.Role = model.RoleGroup
	}

	// focusable nodes carry bounds even when IncludeAllBounds is off
	if !b.cfg.IncludeAllBounds && attrs.Bounds == nil &&
		attrs.IsKeyboardFocusable != nil && *attrs.IsKeyboardFocusable {
		callCtx, cancel := context.WithTimeout(ctx, b.cfg.PerOpTimeout)
		if rect, err := n.Bounds(callCtx); err == nil {
			attrs.Bounds = &rect
		}
		cancel()
	}
	return attrs
}

// readChildren fetches a node's children under the per-call deadline. A
// failure yields a leaf, not an aborted capture.
func (b *treeBuilder) readChildren(ctx context.Context, n Native) []Native {
	callCtx, cancel := context.WithTimeout(ctx, b.cfg.PerOpTimeout)
	defer cancel()
	children, err := n.Children(callCtx)
	if err != nil {
		return nil
	}
	return children
}
