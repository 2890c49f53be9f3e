package game

import "math/rand"

// grid is a fixed N×N array of tiles, addressed [x][z].
type grid struct {
	size  int
	tiles [][]Tile
}

func newGrid(size int) *grid {
	tiles := make([][]Tile, size)
	for x := 0; x < size; x++ {
		tiles[x] = make([]Tile, size)
		for z := 0; z < size; z++ {
			tiles[x][z] = Tile{X: x, Z: z}
		}
	}
	return &grid{size: size, tiles: tiles}
}

func (g *grid) inBounds(x, z int) bool {
	return x >= 0 && x < g.size && z >= 0 && z < g.size
}

func (g *grid) at(x, z int) *Tile {
	return &g.tiles[x][z]
}

// neighbors8 returns the in-bounds 8-neighborhood of (x, z).
func (g *grid) neighbors8(x, z int) []Coord {
	out := make([]Coord, 0, 8)
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			if dx == 0 && dz == 0 {
				continue
			}
			nx, nz := x+dx, z+dz
			if g.inBounds(nx, nz) {
				out = append(out, Coord{X: nx, Z: nz})
			}
		}
	}
	return out
}

// safeZone returns the closed 3×3 neighborhood of (x, z), clipped to
// bounds, including the center tile itself.
func (g *grid) safeZone(x, z int) map[Coord]bool {
	zone := make(map[Coord]bool, 9)
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			nx, nz := x+dx, z+dz
			if g.inBounds(nx, nz) {
				zone[Coord{X: nx, Z: nz}] = true
			}
		}
	}
	return zone
}

// placeMines lays minesCount mines outside the safe zone of (safeX, safeZ),
// then computes neighborMines for every non-mine tile. Mine positions are
// chosen by shuffling the set of legal (non-safe-zone) positions and taking
// the first minesCount of them — the spec.md §9 Design Notes call this
// behaviorally indistinguishable from bounded-retry random sampling, and it
// can't loop forever the way retry-until-success can under high mine
// density.
func (g *grid) placeMines(safeX, safeZ int, minesCount int, rng *rand.Rand) {
	safe := g.safeZone(safeX, safeZ)

	legal := make([]Coord, 0, g.size*g.size)
	for x := 0; x < g.size; x++ {
		for z := 0; z < g.size; z++ {
			c := Coord{X: x, Z: z}
			if !safe[c] {
				legal = append(legal, c)
			}
		}
	}

	rng.Shuffle(len(legal), func(i, j int) { legal[i], legal[j] = legal[j], legal[i] })

	if minesCount > len(legal) {
		minesCount = len(legal)
	}
	for i := 0; i < minesCount; i++ {
		c := legal[i]
		g.at(c.X, c.Z).IsMine = true
	}

	for x := 0; x < g.size; x++ {
		for z := 0; z < g.size; z++ {
			tile := g.at(x, z)
			if tile.IsMine {
				continue
			}
			count := 0
			for _, n := range g.neighbors8(x, z) {
				if g.at(n.X, n.Z).IsMine {
					count++
				}
			}
			tile.NeighborMines = count
		}
	}
}

func (g *grid) mineCount() int {
	count := 0
	for x := 0; x < g.size; x++ {
		for z := 0; z < g.size; z++ {
			if g.tiles[x][z].IsMine {
				count++
			}
		}
	}
	return count
}

// revealFrom marks (x, z) revealed and, if it has no adjacent mines, floods
// outward to reveal every reachable zero-neighbor region plus its border,
// using an explicit worklist rather than recursion (spec.md §9 Design
// Notes: "the recursive reveal can overflow on pathological grids; prefer
// an explicit worklist"). Returns the ordered list of newly revealed tiles.
func (g *grid) revealFrom(x, z int) []Tile {
	start := g.at(x, z)
	if start.IsRevealed {
		return nil
	}

	var revealed []Tile
	start.IsRevealed = true
	revealed = append(revealed, *start)

	if start.IsMine || start.NeighborMines != 0 {
		return revealed
	}

	queue := []Coord{{X: x, Z: z}}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		for _, n := range g.neighbors8(c.X, c.Z) {
			tile := g.at(n.X, n.Z)
			if tile.IsRevealed || tile.IsMine {
				continue
			}
			tile.IsRevealed = true
			revealed = append(revealed, *tile)
			if tile.NeighborMines == 0 {
				queue = append(queue, n)
			}
		}
	}

	return revealed
}

func (g *grid) clientView() []ClientTile {
	out := make([]ClientTile, 0, g.size*g.size)
	for x := 0; x < g.size; x++ {
		for z := 0; z < g.size; z++ {
			out = append(out, g.tiles[x][z].ToClientTile())
		}
	}
	return out
}

func (g *grid) spectatorView() []SpectatorTile {
	out := make([]SpectatorTile, 0, g.size*g.size)
	for x := 0; x < g.size; x++ {
		for z := 0; z < g.size; z++ {
			out = append(out, g.tiles[x][z].ToSpectatorTile())
		}
	}
	return out
}

func (g *grid) allMines() []Coord {
	var out []Coord
	for x := 0; x < g.size; x++ {
		for z := 0; z < g.size; z++ {
			if g.tiles[x][z].IsMine {
				out = append(out, Coord{X: x, Z: z})
			}
		}
	}
	return out
}
