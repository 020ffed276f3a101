package platform

import "context"

// Clipboard reads and writes the system clipboard. Clipboard-mediated
// typing depends on it; backends without clipboard access return a stub.
type Clipboard interface {
	GetText(ctx context.Context) (string, error)
	SetText(ctx context.Context, text string) error
	Clear(ctx context.Context) error
}

// UnsupportedClipboard is the stub for backends without clipboard access.
type UnsupportedClipboard struct{}

func (UnsupportedClipboard) GetText(ctx context.Context) (string, error) {
	return "", UnsupportedOperation("clipboard read")
}

func (UnsupportedClipboard) SetText(ctx context.Context, text string) error {
	return UnsupportedOperation("clipboard write")
}

func (UnsupportedClipboard) Clear(ctx context.Context) error {
	return UnsupportedOperation("clipboard clear")
}
