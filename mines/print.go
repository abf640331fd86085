package mines

import (
	"fmt"
	"io"
)

// Print writes an ASCII rendering of the player-visible board, used by the
// terminal driver. Mines only show up once the game is over.
func (g *Game) Print(w io.Writer) {
	terminal := g.Phase == Won || g.Phase == Lost
	fmt.Fprint(w, "X")
	for x := 0; x < g.Board.Size; x++ {
		fmt.Fprint(w, x%10)
	}
	fmt.Fprintln(w)
	for y := 0; y < g.Board.Size; y++ {
		fmt.Fprint(w, y%10)
		for x := 0; x < g.Board.Size; x++ {
			cell := g.Board.Cells[x][y]
			switch {
			case cell.Revealed && cell.Mine:
				fmt.Fprint(w, "*")
			case cell.Revealed:
				fmt.Fprint(w, cell.Adjacent)
			case terminal && cell.Mine:
				fmt.Fprint(w, "O")
			case cell.Flagged:
				fmt.Fprint(w, "F")
			default:
				fmt.Fprint(w, "#")
			}
		}
		fmt.Fprintln(w)
	}
}
