package config

// Settings exposes the runtime-mutable subset of Config. Values are read on
// every call; the console can flip them while the loop runs.
// Game loop goroutine only.
type Settings struct {
	cfg *Config
}

func NewSettings(cfg *Config) *Settings {
	return &Settings{cfg: cfg}
}

func (s *Settings) AllowPlayerSuggestions() bool {
	return s.cfg.PlayerView.AllowPlayerSuggestions
}

func (s *Settings) SetAllowPlayerSuggestions(allow bool) {
	s.cfg.PlayerView.AllowPlayerSuggestions = allow
}

func (s *Settings) AutoCheckConcentration() bool {
	return s.cfg.Rules.AutoCheckConcentration
}
