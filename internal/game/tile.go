package game

// Coord is a grid coordinate. Field names match the wire format used
// throughout spec.md (x, z) rather than (x, y), to keep client and journal
// payloads consistent with the 3D client this core feeds.
type Coord struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// Tile is one cell of the grid. NeighborMines is only meaningful once mines
// have been placed; before that it is zero for every tile.
type Tile struct {
	X             int
	Z             int
	IsMine        bool
	IsRevealed    bool
	NeighborMines int
}

// ClientTile is the masked view of a Tile sent to players: isMine and
// neighborMines are omitted for tiles that are not yet revealed (invariant
// 7 of spec.md §3).
type ClientTile struct {
	X             int  `json:"x"`
	Z             int  `json:"z"`
	IsRevealed    bool `json:"isRevealed"`
	IsMine        *bool `json:"isMine,omitempty"`
	NeighborMines *int  `json:"neighborMines,omitempty"`
}

// SpectatorTile is the unmasked god view: every tile always carries isMine
// and neighborMines.
type SpectatorTile struct {
	X             int  `json:"x"`
	Z             int  `json:"z"`
	IsRevealed    bool `json:"isRevealed"`
	IsMine        bool `json:"isMine"`
	NeighborMines int  `json:"neighborMines"`
}

// ToClientTile converts a tile to its masked, player-facing view.
func (t Tile) ToClientTile() ClientTile {
	ct := ClientTile{X: t.X, Z: t.Z, IsRevealed: t.IsRevealed}
	if t.IsRevealed {
		isMine := t.IsMine
		neighbors := t.NeighborMines
		ct.IsMine = &isMine
		ct.NeighborMines = &neighbors
	}
	return ct
}

// ToSpectatorTile converts a tile to its unmasked, god-view form.
func (t Tile) ToSpectatorTile() SpectatorTile {
	return SpectatorTile{
		X:             t.X,
		Z:             t.Z,
		IsRevealed:    t.IsRevealed,
		IsMine:        t.IsMine,
		NeighborMines: t.NeighborMines,
	}
}
