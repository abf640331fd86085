package mines

import (
	"fmt"
	"math/rand"
)

type Cell struct {
	Mine     bool
	Revealed bool
	Flagged  bool
	Adjacent int
	X        int
	Y        int
}

type Board struct {
	Size          int
	Mines         int
	Cells         [][]*Cell
	RevealedCells int
	Armed         bool
}

type MoveType byte

const (
	Reveal MoveType = 0x01
	Flag   MoveType = 0x02
)

type Move struct {
	X    int
	Y    int
	Type MoveType
}

func (move Move) String() string {
	msg := fmt.Sprintf("(%d, %d) ", move.X, move.Y)
	switch move.Type {
	case Reveal:
		return msg + "Reveal"
	case Flag:
		return msg + "Flag"
	default:
		return msg + "UNKNOWN"
	}
}

type MoveResultType int

const (
	NoChange MoveResultType = iota
	MineBlown
	CellRevealed
	Flagged
	GameWon
)

type MoveResult struct {
	Result       MoveResultType
	UpdatedCells []*Cell
	// Exploded is set only when Result == MineBlown.
	Exploded *Cell
}

// ExclusionZone is the number of cells kept mine free around the first
// revealed cell (the cell itself plus its 8 neighbours).
const ExclusionZone = 9

type InvalidBoardParamsError struct {
	size  int
	mines int
}

func (e InvalidBoardParamsError) Error() string {
	switch {
	case e.size <= 0:
		return fmt.Sprintf("Cannot create a board with size: %d", e.size)
	case e.mines < 0:
		return fmt.Sprintf("Cannot create a board with negative amount of mines: %d", e.mines)
	case e.mines > e.size*e.size-ExclusionZone:
		return fmt.Sprintf("Not enough space for %d mines on a %dx%d board with a safe first reveal", e.mines, e.size, e.size)
	default:
		return "Cannot construct board: unknown error"
	}
}

type InvalidMoveError struct {
	board *Board
	x     int
	y     int
}

func (e InvalidMoveError) Error() string {
	return fmt.Sprintf("Move out of range - (%d, %d) - Board (%d, %d)", e.x, e.y, e.board.Size, e.board.Size)
}

// CreateBoard builds a Size x Size grid of hidden cells with no mines.
// Mines are placed later by Arm so the first reveal is always safe,
// which is why mines must leave room for the 9 cell exclusion zone.
func CreateBoard(size, mines int) (*Board, error) {
	if size <= 0 || mines < 0 || mines > size*size-ExclusionZone {
		return nil, &InvalidBoardParamsError{size, mines}
	}
	cells := make([][]*Cell, size)
	for x := range cells {
		cells[x] = make([]*Cell, size)
		for y := 0; y < size; y++ {
			cells[x][y] = &Cell{X: x, Y: y}
		}
	}
	return &Board{Size: size, Mines: mines, Cells: cells}, nil
}

func ValidCellIndex(board *Board, x, y int) bool {
	return !(x < 0 || x >= board.Size || y < 0 || y >= board.Size)
}

// Arm places the board's mines by rejection sampling, keeping the cell at
// (x, y) and its neighbours empty, then computes adjacency counts.
// Termination is guaranteed by the mine limit checked in CreateBoard.
func (board *Board) Arm(x, y int) error {
	if !ValidCellIndex(board, x, y) {
		return &InvalidMoveError{board, x, y}
	}
	if board.Armed {
		return fmt.Errorf("board is already armed")
	}
	excluded := make(map[*Cell]bool, ExclusionZone)
	for _, cell := range GetNeighbouringCells(board, board.Cells[x][y]) {
		excluded[cell] = true
	}
	placed := 0
	for placed < board.Mines {
		cell := board.Cells[rand.Intn(board.Size)][rand.Intn(board.Size)]
		if cell.Mine || excluded[cell] {
			continue
		}
		cell.Mine = true
		placed++
	}
	board.computeAdjacency()
	board.Armed = true
	return nil
}

func (board *Board) computeAdjacency() {
	for _, column := range board.Cells {
		for _, cell := range column {
			if cell.Mine {
				continue
			}
			cell.Adjacent = GetNumberOfMines(board, cell)
		}
	}
}

// GetNeighbouringCells returns the cell itself plus its Moore neighbourhood
// clipped to the board bounds.
func GetNeighbouringCells(board *Board, cell *Cell) []*Cell {
	var cells []*Cell
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			x := cell.X + dx
			y := cell.Y + dy
			if ValidCellIndex(board, x, y) {
				cells = append(cells, board.Cells[x][y])
			}
		}
	}
	return cells
}

func GetNumberOfMines(board *Board, cell *Cell) int {
	mines := 0
	for _, ncell := range GetNeighbouringCells(board, cell) {
		if ncell != cell && ncell.Mine {
			mines++
		}
	}
	return mines
}

// floodReveal reveals the starting cell and, for zero adjacency cells,
// expands across the connected region with a worklist. The revealed flag
// doubles as the visited guard so every cell is processed at most once
// and the loop always terminates.
func (board *Board) floodReveal(start *Cell) []*Cell {
	queue := []*Cell{start}
	var updated []*Cell
	for len(queue) > 0 {
		cell := queue[0]
		queue = queue[1:]
		if cell.Revealed || cell.Flagged {
			continue
		}
		cell.Revealed = true
		board.RevealedCells++
		updated = append(updated, cell)
		if cell.Adjacent != 0 {
			continue
		}
		for _, ncell := range GetNeighbouringCells(board, cell) {
			if !ncell.Revealed && !ncell.Flagged {
				queue = append(queue, ncell)
			}
		}
	}
	return updated
}

func (board *Board) Reveal(x, y int) (*MoveResult, error) {
	if !ValidCellIndex(board, x, y) {
		return nil, &InvalidMoveError{board, x, y}
	}
	cell := board.Cells[x][y]
	if cell.Revealed || cell.Flagged {
		return &MoveResult{Result: NoChange}, nil
	}
	if cell.Mine {
		cell.Revealed = true
		return &MoveResult{Result: MineBlown, UpdatedCells: []*Cell{cell}, Exploded: cell}, nil
	}
	updatedCells := board.floodReveal(cell)
	result := CellRevealed
	if board.RevealedCells+board.Mines == board.Size*board.Size {
		result = GameWon
	}
	return &MoveResult{Result: result, UpdatedCells: updatedCells}, nil
}

func (board *Board) Flag(x, y int) (*MoveResult, error) {
	if !ValidCellIndex(board, x, y) {
		return nil, &InvalidMoveError{board, x, y}
	}
	cell := board.Cells[x][y]
	if cell.Revealed {
		return &MoveResult{Result: NoChange}, nil
	}
	cell.Flagged = !cell.Flagged
	return &MoveResult{Result: Flagged, UpdatedCells: []*Cell{cell}}, nil
}

func (board *Board) MakeMove(move Move) (*MoveResult, error) {
	switch move.Type {
	case Reveal:
		return board.Reveal(move.X, move.Y)
	case Flag:
		return board.Flag(move.X, move.Y)
	default:
		return nil, fmt.Errorf("Invalid move type %x", move.Type)
	}
}

// MineCells lists every mine on the board, used for reveal-all rendering
// after a loss.
func (board *Board) MineCells() []*Cell {
	var cells []*Cell
	for _, column := range board.Cells {
		for _, cell := range column {
			if cell.Mine {
				cells = append(cells, cell)
			}
		}
	}
	return cells
}

func (board *Board) RemainingCells() int {
	remaining := 0
	for _, column := range board.Cells {
		for _, cell := range column {
			if !cell.Revealed {
				remaining++
			}
		}
	}
	return remaining
}

const (
	ShowCount byte = 0x00
	ShowMine  byte = 0x10
	ShowFlag  byte = 0x20
	Unflag    byte = 0x30
)

type UpdatedCell struct {
	X     int
	Y     int
	Value byte
}

func CreateUpdatedCells(cells []*Cell) []UpdatedCell {
	updates := make([]UpdatedCell, len(cells))
	var value byte
	for i, cell := range cells {
		switch {
		case cell.Revealed && cell.Mine:
			value = ShowMine
		case cell.Revealed:
			value = byte(cell.Adjacent)
		case cell.Flagged:
			value = ShowFlag
		default:
			// Neither flagged nor revealed so it must be an unflag
			value = Unflag
		}
		updates[i] = UpdatedCell{X: cell.X, Y: cell.Y, Value: value}
	}
	return updates
}

// CreateMineUpdates encodes cells as exposed mines regardless of their
// flag state, used to push the full layout to a client after a loss.
func CreateMineUpdates(cells []*Cell) []UpdatedCell {
	updates := make([]UpdatedCell, len(cells))
	for i, cell := range cells {
		updates[i] = UpdatedCell{X: cell.X, Y: cell.Y, Value: ShowMine}
	}
	return updates
}

// CreateCellUpdates encodes every non hidden cell, used to bring a
// reconnecting client up to date.
func (board *Board) CreateCellUpdates() []UpdatedCell {
	updatedCells := []*Cell{}
	for y := 0; y < board.Size; y++ {
		for x := 0; x < board.Size; x++ {
			cell := board.Cells[x][y]
			if cell.Revealed || cell.Flagged {
				updatedCells = append(updatedCells, cell)
			}
		}
	}
	return CreateUpdatedCells(updatedCells)
}
