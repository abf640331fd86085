package players

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	Store PlayerStore
}

// AuthToken lets a player prove a fresh login to the game server without
// the server keeping session state: the signature covers id, expiry and
// nonce under a shared secret.
type AuthToken struct {
	PlayerID  uint32
	Expiry    int64
	Nonce     [16]byte
	Signature [32]byte
}

const AuthTokenLength = 4 + 8 + 16 + 32

var (
	ErrTokenExpired     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidFormat    = errors.New("invalid token format")

	ErrInvalidCredentials = errors.New("invalid username or password")
)

func (s *Service) Register(username, password string) error {
	passwordHash, err := hashPassword(password)
	if err != nil {
		return err
	}
	return s.Store.CreatePlayer(username, passwordHash)
}

func (s *Service) Login(username, password string) (*Player, error) {
	player, err := s.Store.FindPlayerByName(username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !checkPasswordHash(password, player.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return player, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func GenerateAuthToken(player *Player, secret []byte, ttl time.Duration) (AuthToken, error) {
	expiration := time.Now().Add(ttl).Unix()
	var nonce [16]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return AuthToken{}, err
	}
	signature, err := calculateSignature(signatureData(player.ID, nonce, expiration), secret)
	if err != nil {
		return AuthToken{}, err
	}
	return AuthToken{
		PlayerID:  player.ID,
		Expiry:    expiration,
		Nonce:     nonce,
		Signature: [32]byte(signature),
	}, nil
}

func ValidateAuthToken(token AuthToken, secret []byte) (bool, error) {
	if time.Now().Unix() > token.Expiry {
		return false, ErrTokenExpired
	}
	expected, err := calculateSignature(signatureData(token.PlayerID, token.Nonce, token.Expiry), secret)
	if err != nil {
		return false, ErrInvalidFormat
	}
	if !hmac.Equal(token.Signature[:], expected) {
		return false, ErrInvalidSignature
	}
	return true, nil
}

func signatureData(playerID uint32, nonce [16]byte, expiration int64) []byte {
	// playerID + expiration + nonce
	data := make([]byte, 4+8+16)
	binary.BigEndian.PutUint32(data[0:4], playerID)
	binary.BigEndian.PutUint64(data[4:12], uint64(expiration))
	copy(data[12:], nonce[:])
	return data
}

func calculateSignature(data []byte, key []byte) ([]byte, error) {
	mac := hmac.New(sha256.New, key)
	if _, err := mac.Write(data); err != nil {
		return nil, err
	}
	return mac.Sum(nil), nil
}
