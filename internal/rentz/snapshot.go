package rentz

import "github.com/rentzmp/rentz-server/internal/deck"

// Snapshot is a per-viewer projection of the sub-game state: the viewer's
// own hand in full, every other seat reduced to a card count.
type Snapshot struct {
	SeedRank deck.Rank              `json:"seed"`
	MinRank  deck.Rank              `json:"minRank"`
	Turn     int                    `json:"turn"`
	Next     int                    `json:"next"`
	Lanes    map[deck.Suit]LaneView `json:"lanes"`
	Players  [seats]SeatView        `json:"players"`
	Me       MeView                 `json:"me"`
}

// LaneView mirrors Lane on the wire, with boundaries null while closed
type LaneView struct {
	Open  bool        `json:"open"`
	Run   []deck.Rank `json:"seq"`
	Left  *int        `json:"L"`
	Right *int        `json:"R"`
}

// SeatView is the public view of one seat
type SeatView struct {
	Seat     int    `json:"seat"`
	Name     string `json:"name"`
	Finished bool   `json:"finished"`
	Count    int    `json:"count"`
}

// MeView is the viewer's own seat, hand included
type MeView struct {
	Seat     int         `json:"seat"`
	Finished bool        `json:"finished"`
	Hand     []deck.Card `json:"hand"`
}

// Snapshot builds the masked projection for the given viewer seat
func (s *State) Snapshot(viewer int) Snapshot {
	lanes := make(map[deck.Suit]LaneView, len(s.Lanes))
	for suit, lane := range s.Lanes {
		view := LaneView{Open: lane.Open, Run: append([]deck.Rank(nil), lane.Run...)}
		if lane.Open {
			l, r := lane.Left, lane.Right
			view.Left, view.Right = &l, &r
		}
		lanes[suit] = view
	}

	var players [seats]SeatView
	for seat := range players {
		players[seat] = SeatView{
			Seat:     seat,
			Name:     s.Names[seat],
			Finished: s.Finished[seat],
			Count:    len(s.Hands[seat]),
		}
	}

	return Snapshot{
		SeedRank: s.SeedRank,
		MinRank:  s.MinRank,
		Turn:     s.Turn,
		Next:     s.nextAlive(s.Turn),
		Lanes:    lanes,
		Players:  players,
		Me: MeView{
			Seat:     viewer,
			Finished: s.Finished[viewer],
			Hand:     append([]deck.Card(nil), s.Hands[viewer]...),
		},
	}
}
