package players

type Player struct {
	ID           uint32
	Name         string
	PasswordHash string
}

// PlayerInfo is the public part of a Player, safe to put on the wire.
type PlayerInfo struct {
	ID   uint32
	Name string
}

func (p *Player) Info() *PlayerInfo {
	return &PlayerInfo{ID: p.ID, Name: p.Name}
}

type PlayerStore interface {
	CreatePlayer(username, hash string) error
	FindPlayerByName(username string) (*Player, error)
}
