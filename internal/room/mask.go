package room

import "github.com/rentzmp/rentz-server/internal/deck"

// PlayerInfo is the lobby-level view of one seat
type PlayerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Seat      int    `json:"seat"`
	Connected bool   `json:"connected"`
}

// Info is the public room summary broadcast on lobby changes. It never
// carries card identities.
type Info struct {
	Code            string          `json:"code"`
	Started         bool            `json:"started"`
	MaxHumans       int             `json:"maxHumans"`
	ConnectedHumans int             `json:"connectedHumans"`
	ChooserIndex    int             `json:"chooserIndex"`
	CurrentGame     string          `json:"currentGame,omitempty"`
	ChosenGames     [Seats][]string `json:"chosenGames"`
	Players         []PlayerInfo    `json:"players"`
}

// Public builds the lobby summary
func (r *Room) Public() Info {
	players := make([]PlayerInfo, 0, len(r.Seats))
	for _, s := range r.Seats {
		players = append(players, PlayerInfo{
			ID:        s.ConnID,
			Name:      s.Name,
			Seat:      s.Index,
			Connected: s.Connected(),
		})
	}

	return Info{
		Code:            r.Code,
		Started:         r.Started,
		MaxHumans:       r.MaxHumans,
		ConnectedHumans: r.ConnectedCount(),
		ChooserIndex:    r.ChooserSeat,
		CurrentGame:     r.CurrentGame,
		ChosenGames:     r.ChosenGames,
		Players:         players,
	}
}

// MaskedSeat is one seat as a specific viewer sees it
type MaskedSeat struct {
	Name string      `json:"name"`
	Seat int         `json:"seat"`
	Hand []deck.Card `json:"hand"`
}

// MaskedState is the per-viewer projection of the dealt room. The seed is
// included for client-side animation replay; rule enforcement for the
// non-Rentz sub-games is delegated to clients by design, so revealing it is
// part of that documented trust boundary, not a leak.
type MaskedState struct {
	Players      [Seats]MaskedSeat `json:"players"`
	ChooserIndex int               `json:"chooserIndex"`
	Seed         uint32            `json:"seed"`
	ChosenGames  [Seats][]string   `json:"chosenGames"`
}

// Project builds the masked state for one viewing seat. The viewer sees its
// own cards in full; the host additionally sees the cards of disconnected
// seats, which it runs as local bots. Every other hand is reduced to card
// identifiers.
func (r *Room) Project(viewer *Seat) MaskedState {
	var players [Seats]MaskedSeat
	for i := 0; i < Seats; i++ {
		seat := r.SeatByIndex(i)
		connected := seat != nil && seat.Connected()

		reveal := i == viewer.Index || (viewer.IsHost() && !connected)

		hand := make([]deck.Card, 0, len(r.Hands[i]))
		for _, c := range r.Hands[i] {
			if reveal {
				hand = append(hand, c)
			} else {
				hand = append(hand, c.Masked())
			}
		}

		players[i] = MaskedSeat{Name: r.SeatName(i), Seat: i, Hand: hand}
	}

	return MaskedState{
		Players:      players,
		ChooserIndex: r.ChooserSeat,
		Seed:         r.Seed,
		ChosenGames:  r.ChosenGames,
	}
}
