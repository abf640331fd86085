package mines

import "fmt"

// Difficulty is configuration data only; the engine treats every valid
// size/mines pair the same way.
type Difficulty struct {
	Name  string
	Size  int
	Mines int
}

var Difficulties = map[string]Difficulty{
	"easy":   {Name: "easy", Size: 9, Mines: 10},
	"medium": {Name: "medium", Size: 16, Mines: 40},
	"hard":   {Name: "hard", Size: 20, Mines: 80},
}

func GetDifficulty(name string) (Difficulty, error) {
	difficulty, ok := Difficulties[name]
	if !ok {
		return Difficulty{}, fmt.Errorf("unknown difficulty: %q", name)
	}
	return difficulty, nil
}
