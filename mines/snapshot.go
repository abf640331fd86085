package mines

// CellView is one cell as a driver is allowed to see it. Adjacent is only
// filled in for revealed cells and Mine only once the game is over, so a
// renderer can be handed the snapshot without being able to cheat.
type CellView struct {
	X        int  `json:"x"`
	Y        int  `json:"y"`
	Revealed bool `json:"revealed"`
	Flagged  bool `json:"flagged"`
	Adjacent int  `json:"adjacent"`
	Mine     bool `json:"mine"`
}

type Snapshot struct {
	Size           int        `json:"size"`
	Mines          int        `json:"mines"`
	Phase          Phase      `json:"phase"`
	Elapsed        int        `json:"elapsed"`
	Flags          int        `json:"flags"`
	RemainingMines int        `json:"remainingMines"`
	HintsRemaining int        `json:"hintsRemaining"`
	Cells          []CellView `json:"cells"`
}

// Snapshot copies the visible game state. The copy shares nothing with
// the live board, so drivers can keep it across later commands.
func (g *Game) Snapshot() Snapshot {
	terminal := g.Phase == Won || g.Phase == Lost
	cells := make([]CellView, 0, g.Board.Size*g.Board.Size)
	for y := 0; y < g.Board.Size; y++ {
		for x := 0; x < g.Board.Size; x++ {
			cell := g.Board.Cells[x][y]
			view := CellView{X: x, Y: y, Revealed: cell.Revealed, Flagged: cell.Flagged}
			if cell.Revealed && !cell.Mine {
				view.Adjacent = cell.Adjacent
			}
			if terminal {
				view.Mine = cell.Mine
			}
			cells = append(cells, view)
		}
	}
	return Snapshot{
		Size:           g.Board.Size,
		Mines:          g.Board.Mines,
		Phase:          g.Phase,
		Elapsed:        g.Elapsed,
		Flags:          g.Flags,
		RemainingMines: g.RemainingMines(),
		HintsRemaining: g.HintsRemaining,
		Cells:          cells,
	}
}
