package score

// Sentinel values used by the game's play log. They are matched bit-exact
// when decoding and do not propagate past this file.
const (
	// noPreviousScore is the stored old score when the chart had none.
	noPreviousScore = 0
	// missNeverRecorded is the stored old miss count when no miss count
	// was ever recorded for the chart.
	missNeverRecorded = 2147483647
	// noHistoryMarker is the stored old miss count when the chart has no
	// play history at all.
	noHistoryMarker = -2147483648
	// missEventBaseline anchors a first-play miss delta when the chart's
	// note count is unknown.
	missEventBaseline = 0
)

// PlayRecord is one raw delta row from the play log: each metric's value
// before and after a single play, stamped with the play time in unix
// seconds. Records are supplied externally and read-only here.
type PlayRecord struct {
	SHA256       string `db:"sha256"`
	Mode         int    `db:"mode"`
	Clear        int    `db:"clear"`
	OldClear     int    `db:"oldclear"`
	Score        int    `db:"score"`
	OldScore     int    `db:"oldscore"`
	Combo        int    `db:"combo"`
	OldCombo     int    `db:"oldcombo"`
	MissCount    int    `db:"minbp"`
	OldMissCount int    `db:"oldminbp"`
	Timestamp    int64  `db:"date"`
}

// EventKind classifies how a chart improved.
type EventKind string

const (
	EventScore     EventKind = "score"
	EventMiss      EventKind = "miss"
	EventClear     EventKind = "clear"
	EventFirstPlay EventKind = "firstPlay"
)

// Event is one typed improvement derived from a play record. A single
// record yields between zero and four events.
type Event struct {
	Kind      EventKind `json:"kind"`
	Delta     int       `json:"delta"`
	NewValue  int       `json:"new_value"`
	OldValue  int       `json:"old_value"`
	Clear     ClearType `json:"clear"`
	MissCount int       `json:"miss_count"`
	Combo     int       `json:"combo"`
}

// prevMiss is the decoded previous miss count: the raw sentinel integers
// become an explicit optional value at this boundary.
type prevMiss struct {
	count     int
	recorded  bool
	noHistory bool
}

func decodePrevMiss(raw int) prevMiss {
	switch raw {
	case missNeverRecorded:
		return prevMiss{}
	case noHistoryMarker:
		return prevMiss{noHistory: true}
	default:
		return prevMiss{count: raw, recorded: true}
	}
}

// Classify turns one day's play records for a single chart, ordered by
// timestamp ascending, into the chart's improvement events. notes is the
// chart's note count, or 0 when metadata does not supply one. An empty
// result means the chart had no qualifying improvement that day.
func Classify(records []PlayRecord, notes int) []Event {
	var events []Event
	for _, r := range records {
		events = append(events, classifyRecord(r, notes)...)
	}
	return events
}

func classifyRecord(r PlayRecord, notes int) []Event {
	prev := decodePrevMiss(r.OldMissCount)
	firstPlay := r.OldScore == noPreviousScore || (!prev.recorded && !prev.noHistory)

	var events []Event
	if firstPlay {
		if r.Score > 0 {
			events = append(events, Event{
				Kind:      EventScore,
				Delta:     r.Score,
				NewValue:  r.Score,
				OldValue:  0,
				Clear:     ClearType(r.Clear),
				MissCount: r.MissCount,
				Combo:     r.Combo,
			})
		}
		// Reachable only when the missing miss-count sentinel alone
		// triggered first play: the oldScore guard excludes real first
		// plays.
		if r.MissCount < missNeverRecorded && !prev.noHistory && r.OldScore > 0 {
			delta := missEventBaseline - r.MissCount
			if notes > 0 {
				delta = notes - r.MissCount
			}
			events = append(events, Event{
				Kind:      EventMiss,
				Delta:     delta,
				NewValue:  r.MissCount,
				OldValue:  r.OldMissCount,
				Clear:     ClearType(r.Clear),
				MissCount: r.MissCount,
				Combo:     r.Combo,
			})
		}
		if r.Clear > 0 {
			events = append(events, Event{
				Kind:      EventClear,
				Delta:     r.Clear,
				NewValue:  r.Clear,
				OldValue:  0,
				Clear:     ClearType(r.Clear),
				MissCount: r.MissCount,
				Combo:     r.Combo,
			})
		}
		events = append(events, Event{
			Kind:      EventFirstPlay,
			Delta:     r.Score,
			NewValue:  r.Score,
			OldValue:  0,
			Clear:     ClearType(r.Clear),
			MissCount: r.MissCount,
			Combo:     r.Combo,
		})
		return events
	}

	if d := r.Score - r.OldScore; d > 0 {
		events = append(events, Event{
			Kind:      EventScore,
			Delta:     d,
			NewValue:  r.Score,
			OldValue:  r.OldScore,
			Clear:     ClearType(r.Clear),
			MissCount: r.MissCount,
			Combo:     r.Combo,
		})
	}
	if prev.recorded && r.MissCount < missNeverRecorded {
		// A reduction in misses is an improvement, stored negative.
		if d := prev.count - r.MissCount; d > 0 {
			events = append(events, Event{
				Kind:      EventMiss,
				Delta:     -d,
				NewValue:  r.MissCount,
				OldValue:  prev.count,
				Clear:     ClearType(r.Clear),
				MissCount: r.MissCount,
				Combo:     r.Combo,
			})
		}
	}
	if d := r.Clear - r.OldClear; d > 0 {
		events = append(events, Event{
			Kind:      EventClear,
			Delta:     d,
			NewValue:  r.Clear,
			OldValue:  r.OldClear,
			Clear:     ClearType(r.Clear),
			MissCount: r.MissCount,
			Combo:     r.Combo,
		})
	}
	return events
}
