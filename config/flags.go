package config

import "flag"

// Flags holds the command-line overrides. Only flags the user actually set
// are applied, so file and environment values survive unset flags.
type Flags struct {
	ConfigPath string
	EnvFile    string

	fs          *flag.FlagSet
	addr        string
	tickHz      int
	broadcastHz int
	levelsDir   string
	level       string
	watch       bool
	logLevel    string
	logFormat   string
	chatScript  string
}

func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	def := Default()
	fs.StringVar(&f.ConfigPath, "config", "", "path to a YAML config file")
	fs.StringVar(&f.EnvFile, "env", ".env", "path to a .env file (ignored when missing)")
	fs.StringVar(&f.addr, "addr", def.Server.Addr, "listen address")
	fs.IntVar(&f.tickHz, "tick-hz", def.Server.TickHz, "simulation ticks per second")
	fs.IntVar(&f.broadcastHz, "broadcast-hz", def.Server.BroadcastHz, "state broadcasts per second")
	fs.StringVar(&f.levelsDir, "levels", def.Levels.Dir, "directory holding <name>.json level files")
	fs.StringVar(&f.level, "level", def.Levels.Start, "level to load at startup")
	fs.BoolVar(&f.watch, "watch", def.Levels.Watch, "reload the current level when its file changes")
	fs.StringVar(&f.logLevel, "log-level", def.Log.Level, "debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", def.Log.Format, "console or json")
	fs.StringVar(&f.chatScript, "chat-script", "", "override the bundled chat trigger script")
	return f
}

// Apply copies every explicitly set flag into cfg.
func (f *Flags) Apply(cfg *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "addr":
			cfg.Server.Addr = f.addr
		case "tick-hz":
			cfg.Server.TickHz = f.tickHz
		case "broadcast-hz":
			cfg.Server.BroadcastHz = f.broadcastHz
		case "levels":
			cfg.Levels.Dir = f.levelsDir
		case "level":
			cfg.Levels.Start = f.level
		case "watch":
			cfg.Levels.Watch = f.watch
		case "log-level":
			cfg.Log.Level = f.logLevel
		case "log-format":
			cfg.Log.Format = f.logFormat
		case "chat-script":
			cfg.Scripts.Chat = f.chatScript
		}
	})
}
