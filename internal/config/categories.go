package config

const (
	CategoryInformation = "🕯️ Information"
	CategoryPlayback    = "🎵 Playback"
	CategoryQueue       = "📜 Queue"
	CategoryEffects     = "🎛️ Effects"
)

// CategoryWeights orders help sections, lowest first.
var CategoryWeights = map[string]int{
	CategoryInformation: 0,
	CategoryPlayback:    10,
	CategoryQueue:       20,
	CategoryEffects:     30,
}

const AppName = "Jukebox"
