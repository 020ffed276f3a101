package model

// Window describes one top-level application window.
type Window struct {
	App     string `yaml:"app"               json:"app"`
	PID     int32  `yaml:"pid"               json:"pid"`
	Title   string `yaml:"title"             json:"title"`
	Bounds  *Rect  `yaml:"bounds,omitempty"  json:"bounds,omitempty"`
	Focused bool   `yaml:"focused,omitempty" json:"focused,omitempty"`
}

// Application describes one running application that exposes UI.
type Application struct {
	Name    string `yaml:"name"              json:"name"`
	PID     int32  `yaml:"pid"               json:"pid"`
	Exe     string `yaml:"exe,omitempty"     json:"exe,omitempty"`
	Windows int    `yaml:"windows,omitempty" json:"windows,omitempty"`
}
