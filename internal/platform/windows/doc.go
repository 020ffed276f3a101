// Package windows implements the engine on UI Automation. COM is entered
// once on a locked OS thread owned by the engine executor; every UIA call
// runs there. Input synthesis uses SendInput, capture uses GDI, and the
// overlay draws straight onto the screen device context.
package windows
