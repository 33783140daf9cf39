package entity

// VideoStat is a single video's statistics as observed in one polling cycle.
type VideoStat struct {
	ID    string
	Title string
	Likes int64
}

// ChannelStat is the channel-level statistics observed in one polling cycle.
type ChannelStat struct {
	ID          string
	Subscribers int64
}

// TriggerKind identifies which webhook a delta is routed to.
type TriggerKind string

const (
	// TriggerLikes fires when new likes accumulate across tracked videos.
	TriggerLikes TriggerKind = "likes"

	// TriggerSubscribers fires when the channel's subscriber count grows.
	TriggerSubscribers TriggerKind = "subscribers"
)

// String returns the kind as used in log attributes and metric labels.
func (k TriggerKind) String() string {
	return string(k)
}
