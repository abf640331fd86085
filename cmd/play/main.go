package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mid0o/minesweeper/mines"
)

const help = `commands:
  r X Y    reveal cell
  f X Y    toggle flag
  h        use a hint
  t        try again with the same mines
  n        new game
  q        quit`

func printState(game *mines.Game) {
	fmt.Printf("mines: %d  hints: %d  time: %d\n", game.RemainingMines(), game.HintsRemaining, game.Elapsed)
	game.Print(os.Stdout)
}

func main() {
	name := flag.String("difficulty", "easy", "easy, medium or hard")
	flag.Parse()

	difficulty, err := mines.GetDifficulty(*name)
	if err != nil {
		fmt.Println(err)
		return
	}
	game, err := mines.CreateGame(difficulty)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(help)
	printState(game)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		var x, y int
		if fields[0] == "r" || fields[0] == "f" {
			if len(fields) != 3 {
				fmt.Println("expected two coordinates")
				continue
			}
			if _, err := fmt.Sscanf(fields[1]+" "+fields[2], "%d %d", &x, &y); err != nil {
				fmt.Println("expected two coordinates")
				continue
			}
		}
		switch fields[0] {
		case "r":
			result, err := game.Reveal(x, y)
			if err != nil {
				fmt.Println(err)
				continue
			}
			// Each command advances the clock by one unit.
			game.Tick()
			switch result.Result {
			case mines.MineBlown:
				printState(game)
				fmt.Println("BOOM")
				continue
			case mines.GameWon:
				printState(game)
				fmt.Printf("CLEARED in %d moves worth of time\n", game.Elapsed)
				continue
			}
		case "f":
			if _, err := game.ToggleFlag(x, y); err != nil {
				fmt.Println(err)
				continue
			}
			game.Tick()
		case "h":
			hint, err := game.UseHint()
			if err != nil {
				fmt.Println(err)
				continue
			}
			switch hint.Kind {
			case mines.SuggestSafe:
				fmt.Printf("try (%d, %d)\n", hint.X, hint.Y)
			case mines.WarnMine:
				fmt.Printf("avoid (%d, %d)\n", hint.X, hint.Y)
			}
		case "t":
			if err := game.Reset(true); err != nil {
				fmt.Println(err)
				continue
			}
		case "n":
			if err := game.Reset(false); err != nil {
				fmt.Println(err)
				continue
			}
		case "q":
			return
		default:
			fmt.Println(help)
			continue
		}
		printState(game)
	}
}
