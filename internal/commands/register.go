package commands

import "github.com/keshon/jukebox/pkg/cmd"

// All returns one instance of every chat command.
func All() []cmd.Command {
	return []cmd.Command{
		&HelpCommand{},
		&PlayCommand{},
		&SearchCommand{},
		&SkipCommand{},
		&StopCommand{},
		&NowPlayingCommand{},
		&QueueCommand{},
		&ShuffleCommand{},
		&ClearCommand{},
		&LoopCommand{},
		&VolumeCommand{},
		&EqualizerCommand{},
		&BassBoostCommand{},
		&NightcoreCommand{},
	}
}

// Register adds every command to r behind the guild check and the command
// logger. history may be nil.
func Register(r *cmd.Registry, history HistoryRecorder) {
	for _, c := range All() {
		r.Register(cmd.Apply(c, WithGuildOnly(), WithCommandLogger(history)))
	}
}
