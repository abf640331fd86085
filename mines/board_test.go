package mines

import "testing"

// buildBoard constructs an armed board with an exact mine layout so flood
// fill behaviour can be checked deterministically.
func buildBoard(t *testing.T, size int, mineAt [][2]int) *Board {
	t.Helper()
	board, err := CreateBoard(size, len(mineAt))
	if err != nil {
		t.Fatalf("Failed to create board: %v", err)
	}
	for _, pos := range mineAt {
		board.Cells[pos[0]][pos[1]].Mine = true
	}
	board.computeAdjacency()
	board.Armed = true
	return board
}

func TestFloodFillRevealsMaximalRegion(t *testing.T) {
	// Single mine in the corner: every other cell is connected to (0, 0)
	// through zero adjacency cells, so one reveal clears the whole board.
	board := buildBoard(t, 5, [][2]int{{4, 4}})
	result, err := board.Reveal(0, 0)
	if err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if result.Result != GameWon {
		t.Fatalf("Expected GameWon, got %v", result.Result)
	}
	if board.RevealedCells != 24 {
		t.Fatalf("Expected 24 revealed cells, got %d", board.RevealedCells)
	}
	if board.Cells[4][4].Revealed {
		t.Fatalf("Flood fill revealed a mine")
	}
}

func TestFloodFillSkipsFlaggedCells(t *testing.T) {
	board := buildBoard(t, 5, [][2]int{{4, 4}})
	if _, err := board.Flag(2, 2); err != nil {
		t.Fatalf("Flag failed: %v", err)
	}
	result, err := board.Reveal(0, 0)
	if err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if board.Cells[2][2].Revealed {
		t.Fatalf("Flood fill revealed a flagged cell")
	}
	if result.Result != CellRevealed {
		t.Fatalf("Expected CellRevealed with a cell still flagged, got %v", result.Result)
	}
	if board.RevealedCells != 23 {
		t.Fatalf("Expected 23 revealed cells, got %d", board.RevealedCells)
	}
}

func TestFloodFillStopsAtNumbers(t *testing.T) {
	// Mine wall down the middle column separates the board; revealing on
	// the left must not spill past the numbered border cells.
	board := buildBoard(t, 5, [][2]int{{2, 0}, {2, 1}, {2, 2}, {2, 3}, {2, 4}})
	if _, err := board.Reveal(0, 0); err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	for y := 0; y < 5; y++ {
		if board.Cells[3][y].Revealed || board.Cells[4][y].Revealed {
			t.Fatalf("Flood fill crossed the mine wall at column %d", 3)
		}
	}
	for y := 0; y < 5; y++ {
		if !board.Cells[0][y].Revealed || !board.Cells[1][y].Revealed {
			t.Fatalf("Flood fill did not reach the whole left region")
		}
	}
}

func TestAdjacencyCounts(t *testing.T) {
	board, err := CreateBoard(9, 10)
	if err != nil {
		t.Fatalf("Failed to create board: %v", err)
	}
	if err := board.Arm(4, 4); err != nil {
		t.Fatalf("Failed to arm board: %v", err)
	}
	for _, column := range board.Cells {
		for _, cell := range column {
			if cell.Mine {
				continue
			}
			if want := GetNumberOfMines(board, cell); cell.Adjacent != want {
				t.Fatalf("Cell (%d, %d) has adjacency %d, want %d", cell.X, cell.Y, cell.Adjacent, want)
			}
		}
	}
}

func TestArmPlacesExactMineCountOutsideExclusionZone(t *testing.T) {
	for i := 0; i < 20; i++ {
		board, err := CreateBoard(9, 10)
		if err != nil {
			t.Fatalf("Failed to create board: %v", err)
		}
		if err := board.Arm(4, 4); err != nil {
			t.Fatalf("Failed to arm board: %v", err)
		}
		if got := len(board.MineCells()); got != 10 {
			t.Fatalf("Expected 10 mines, got %d", got)
		}
		for _, cell := range GetNeighbouringCells(board, board.Cells[4][4]) {
			if cell.Mine {
				t.Fatalf("Mine placed in exclusion zone at (%d, %d)", cell.X, cell.Y)
			}
		}
	}
}

func TestArmFullDensityBoard(t *testing.T) {
	// 72 mines on 9x9 is the densest board an interior first click
	// allows: arming must fill every cell outside the exclusion zone
	// and still terminate.
	board, err := CreateBoard(9, 72)
	if err != nil {
		t.Fatalf("Failed to create board: %v", err)
	}
	if err := board.Arm(4, 4); err != nil {
		t.Fatalf("Failed to arm board: %v", err)
	}
	if got := len(board.MineCells()); got != 72 {
		t.Fatalf("Expected 72 mines, got %d", got)
	}
	for _, cell := range GetNeighbouringCells(board, board.Cells[4][4]) {
		if cell.Mine {
			t.Fatalf("Mine placed in exclusion zone at (%d, %d)", cell.X, cell.Y)
		}
	}
}

func TestBoardParamsValidation(t *testing.T) {
	cases := []struct {
		size  int
		mines int
	}{
		{0, 0},
		{-3, 5},
		{9, -1},
		{9, 81},
		{9, 73},  // 81 - 9 + 1, one over the exclusion zone limit
		{3, 1},   // 3x3 board cannot fit any mine with a safe first click
	}
	for _, c := range cases {
		if _, err := CreateBoard(c.size, c.mines); err == nil {
			t.Fatalf("Expected error for size=%d mines=%d", c.size, c.mines)
		}
	}
	if _, err := CreateBoard(9, 72); err != nil {
		t.Fatalf("Expected 72 mines to fit on a 9x9 board: %v", err)
	}
}

func TestRevealOutOfBounds(t *testing.T) {
	board := buildBoard(t, 5, [][2]int{{4, 4}})
	if _, err := board.Reveal(5, 0); err == nil {
		t.Fatalf("Expected InvalidMoveError for out of bounds reveal")
	}
	if _, err := board.Flag(-1, 2); err == nil {
		t.Fatalf("Expected InvalidMoveError for out of bounds flag")
	}
}

func TestCellUpdateEncoding(t *testing.T) {
	board := buildBoard(t, 5, [][2]int{{4, 4}})
	board.Flag(4, 4)
	board.Reveal(0, 0)
	updates := board.CreateCellUpdates()
	// 24 revealed cells plus the flag on the mine
	if len(updates) != 25 {
		t.Fatalf("Expected 25 cell updates, got %d", len(updates))
	}
	for _, update := range updates {
		if update.X == 4 && update.Y == 4 {
			if update.Value != ShowFlag {
				t.Fatalf("Expected flag marker for (4, 4), got %x", update.Value)
			}
		} else if update.Value > 8 {
			t.Fatalf("Expected adjacency value for (%d, %d), got %x", update.X, update.Y, update.Value)
		}
	}
}
