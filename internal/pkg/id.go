package pkg

import (
	"fmt"

	"github.com/google/uuid"
	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	roomIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	roomIDLength   = 6
)

// GenerateRoomID - short room code that is easy to read out loud.
func GenerateRoomID() (string, error) {
	id, err := nanoid.Generate(roomIDAlphabet, roomIDLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate room id: %w", err)
	}

	return id, nil
}

func GeneratePlayerID() string {
	return uuid.NewString()
}
