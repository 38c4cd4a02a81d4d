package analytics

// Tracker accepts analytics events without blocking the caller.
type Tracker interface {
	Track(event any)
}

// Keyed events choose their own Kafka partition key.
type Keyed interface {
	EventKey() string
}

// KeyOf returns the partition key for event, "analytics" when it has none.
func KeyOf(event any) string {
	if k, ok := event.(Keyed); ok && k.EventKey() != "" {
		return k.EventKey()
	}
	return "analytics"
}

// Multi fans events out to every non-nil tracker.
func Multi(trackers ...Tracker) Tracker {
	out := make(multi, 0, len(trackers))
	for _, t := range trackers {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

type multi []Tracker

func (m multi) Track(event any) {
	for _, t := range m {
		t.Track(event)
	}
}
