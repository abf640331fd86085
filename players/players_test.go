package players_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mid0o/minesweeper/players"
)

type fakeStore struct {
	players map[string]*players.Player
}

func (s *fakeStore) CreatePlayer(username, hash string) error {
	if _, exists := s.players[username]; exists {
		return fmt.Errorf("player already exists")
	}
	s.players[username] = &players.Player{
		ID:           uint32(len(s.players) + 1),
		Name:         username,
		PasswordHash: hash,
	}
	return nil
}

func (s *fakeStore) FindPlayerByName(username string) (*players.Player, error) {
	player, exists := s.players[username]
	if !exists {
		return nil, fmt.Errorf("player not found")
	}
	return player, nil
}

func TestRegisterAndLogin(t *testing.T) {
	service := &players.Service{Store: &fakeStore{players: make(map[string]*players.Player)}}
	if err := service.Register("john", "hunter2"); err != nil {
		t.Fatalf("Failed to register player: %v", err)
	}
	player, err := service.Login("john", "hunter2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if player.Name != "john" {
		t.Fatalf("Logged in as wrong player: %s", player.Name)
	}
	if _, err := service.Login("john", "wrong"); !errors.Is(err, players.ErrInvalidCredentials) {
		t.Fatalf("Expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := service.Login("nobody", "hunter2"); !errors.Is(err, players.ErrInvalidCredentials) {
		t.Fatalf("Expected ErrInvalidCredentials for unknown player, got %v", err)
	}
}

func TestTokenValidation(t *testing.T) {
	secret := []byte("SECRET TOKEN")
	player := players.Player{ID: 1235}
	token, err := players.GenerateAuthToken(&player, secret, time.Minute*10)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	success, err := players.ValidateAuthToken(token, secret)
	if !success {
		t.Fatalf("Verification failed: %v", err)
	}
}

func TestTokenExpiration(t *testing.T) {
	secret := []byte("SECRET TOKEN")
	player := players.Player{ID: 1235}
	token, err := players.GenerateAuthToken(&player, secret, time.Minute*-1)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	success, err := players.ValidateAuthToken(token, secret)
	if success {
		t.Fatalf("Expired token was validated as success: %v", err)
	}
	if !errors.Is(err, players.ErrTokenExpired) {
		t.Fatalf("Expected ErrTokenExpired, got: %v", err)
	}
}

func TestTokenModification(t *testing.T) {
	secret := []byte("SECRET TOKEN")
	player := players.Player{ID: 1235}
	token, err := players.GenerateAuthToken(&player, secret, time.Minute*-1)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	token.Expiry = time.Now().Add(time.Hour).Unix()
	success, err := players.ValidateAuthToken(token, secret)
	if success {
		t.Fatalf("Modified token was validated as success: %v", err)
	}
	if !errors.Is(err, players.ErrInvalidSignature) {
		t.Fatalf("Expected ErrInvalidSignature, got: %v", err)
	}
}
