package models

// Video is one comparable entity in a matchup. Its performance score is a
// ratio against the channel's baseline and stays nil until the round is
// revealed; the raw view count is display-only after reveal.
type Video struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail"`
	ViewCount int64    `json:"view_count"`
	PerfScore *float64 `json:"perf_score,omitempty"`
}

// Channel is the owning context for a battle.
type Channel struct {
	Title       string `json:"title"`
	Avatar      string `json:"avatar"`
	Subscribers int64  `json:"subscriber_count"`
}

// Battle is one round's pair of videos plus their shared channel. The
// matchup ID is opaque; the verifier resolves it server-side so the client
// can never supply its own answer. A battle is consumed exactly once.
type Battle struct {
	MatchupID string  `json:"matchup_id"`
	Channel   Channel `json:"channel"`
	VideoA    Video   `json:"video_a"`
	VideoB    Video   `json:"video_b"`
}
