package mines

import (
	"errors"
	"fmt"
	"math/rand"
)

type Phase int

const (
	NotArmed Phase = iota
	Armed
	Won
	Lost
)

func (p Phase) String() string {
	switch p {
	case NotArmed:
		return "NotArmed"
	case Armed:
		return "Armed"
	case Won:
		return "Won"
	case Lost:
		return "Lost"
	default:
		return "UNKNOWN"
	}
}

// HintBudget is the number of hints a fresh game starts with.
const HintBudget = 3

var (
	ErrNoHintsRemaining = errors.New("no hints remaining")
	ErrNotArmed         = errors.New("mines not placed yet, nothing to hint")
	ErrNoSafeTiles      = errors.New("no safe hidden cells left")
)

type InvalidStateError struct {
	phase  Phase
	reason string
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("Command not allowed in phase %s: %s", e.phase, e.reason)
}

// Game wraps one board with the session counters. It is a plain state
// machine driven by exactly one caller at a time; time advances only
// through Tick so the engine never reads the wall clock.
type Game struct {
	Board          *Board
	Difficulty     Difficulty
	Phase          Phase
	Elapsed        int
	Flags          int
	HintsRemaining int
}

func CreateGame(difficulty Difficulty) (*Game, error) {
	board, err := CreateBoard(difficulty.Size, difficulty.Mines)
	if err != nil {
		return nil, err
	}
	return &Game{
		Board:          board,
		Difficulty:     difficulty,
		Phase:          NotArmed,
		HintsRemaining: HintBudget,
	}, nil
}

// Reveal uncovers the cell at (x, y). The first reveal of a game arms the
// board with (x, y) and its neighbours excluded, so it can never hit a
// mine. On a loss the result carries the detonated cell and the full mine
// layout. Commands on a finished game are no-ops.
func (g *Game) Reveal(x, y int) (*MoveResult, error) {
	if g.Phase == Won || g.Phase == Lost {
		return &MoveResult{Result: NoChange}, nil
	}
	if !ValidCellIndex(g.Board, x, y) {
		return nil, &InvalidMoveError{g.Board, x, y}
	}
	cell := g.Board.Cells[x][y]
	if cell.Revealed || cell.Flagged {
		return &MoveResult{Result: NoChange}, nil
	}
	if g.Phase == NotArmed {
		if err := g.Board.Arm(x, y); err != nil {
			return nil, err
		}
		g.Phase = Armed
	}
	result, err := g.Board.Reveal(x, y)
	if err != nil {
		return nil, err
	}
	switch result.Result {
	case MineBlown:
		g.Phase = Lost
		// Expose the whole layout for reveal-all rendering. The detonated
		// cell is part of it and already marked revealed.
		result.UpdatedCells = g.Board.MineCells()
	case GameWon:
		g.Phase = Won
	}
	return result, nil
}

// ToggleFlag flips the flag on a hidden cell and adjusts the flag counter.
// The counter may exceed the mine count; the remaining-mines display going
// negative is intentional.
func (g *Game) ToggleFlag(x, y int) (*MoveResult, error) {
	if g.Phase == Won || g.Phase == Lost {
		return nil, &InvalidStateError{g.Phase, "game is over"}
	}
	if !ValidCellIndex(g.Board, x, y) {
		return nil, &InvalidMoveError{g.Board, x, y}
	}
	if g.Board.Cells[x][y].Revealed {
		return nil, &InvalidStateError{g.Phase, "cell is already revealed"}
	}
	result, err := g.Board.Flag(x, y)
	if err != nil {
		return nil, err
	}
	if g.Board.Cells[x][y].Flagged {
		g.Flags++
	} else {
		g.Flags--
	}
	return result, nil
}

// RemainingMines is the value the driver shows next to the flag counter.
func (g *Game) RemainingMines() int {
	return g.Board.Mines - g.Flags
}

// MakeMove dispatches a wire move onto the session.
func (g *Game) MakeMove(move Move) (*MoveResult, error) {
	switch move.Type {
	case Reveal:
		return g.Reveal(move.X, move.Y)
	case Flag:
		return g.ToggleFlag(move.X, move.Y)
	default:
		return nil, fmt.Errorf("Invalid move type %x", move.Type)
	}
}

// Tick advances elapsed time by one unit while a game is running.
// The clock itself belongs to the driver.
func (g *Game) Tick() {
	if g.Phase == Armed {
		g.Elapsed++
	}
}

// Reset with keepLayout restores the current mine layout to a fully
// hidden board ("try again"); otherwise it is a fresh game with the same
// difficulty. Hints are only refilled on a fresh game.
func (g *Game) Reset(keepLayout bool) error {
	if keepLayout && g.Board.Armed {
		for _, column := range g.Board.Cells {
			for _, cell := range column {
				cell.Revealed = false
				cell.Flagged = false
			}
		}
		g.Board.RevealedCells = 0
		g.Phase = Armed
		g.Flags = 0
		g.Elapsed = 0
		return nil
	}
	board, err := CreateBoard(g.Difficulty.Size, g.Difficulty.Mines)
	if err != nil {
		return err
	}
	g.Board = board
	g.Phase = NotArmed
	g.Flags = 0
	g.Elapsed = 0
	g.HintsRemaining = HintBudget
	return nil
}

type HintKind byte

const (
	SuggestSafe HintKind = 0x01
	WarnMine    HintKind = 0x02
)

type Hint struct {
	X    int
	Y    int
	Kind HintKind
}

// UseHint picks a hidden unflagged cell for the player: usually a safe one
// to try, with probability 1/3 a warning about a mine instead. The caller
// only highlights the cell, nothing is revealed. Each successful hint
// consumes one unit of the budget.
func (g *Game) UseHint() (*Hint, error) {
	if g.HintsRemaining <= 0 {
		return nil, ErrNoHintsRemaining
	}
	if g.Phase == Won || g.Phase == Lost {
		return nil, &InvalidStateError{g.Phase, "game is over"}
	}
	if g.Phase == NotArmed {
		return nil, ErrNotArmed
	}
	var safe, unsafeMines []*Cell
	for _, column := range g.Board.Cells {
		for _, cell := range column {
			if cell.Revealed || cell.Flagged {
				continue
			}
			if cell.Mine {
				unsafeMines = append(unsafeMines, cell)
			} else {
				safe = append(safe, cell)
			}
		}
	}
	if len(safe) == 0 {
		return nil, ErrNoSafeTiles
	}
	g.HintsRemaining--
	if len(unsafeMines) > 0 && rand.Intn(3) == 0 {
		cell := unsafeMines[rand.Intn(len(unsafeMines))]
		return &Hint{X: cell.X, Y: cell.Y, Kind: WarnMine}, nil
	}
	cell := safe[rand.Intn(len(safe))]
	return &Hint{X: cell.X, Y: cell.Y, Kind: SuggestSafe}, nil
}
