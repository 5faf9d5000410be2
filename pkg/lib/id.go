package lib

import (
	"fmt"

	"github.com/google/uuid"
)

// IdGenerator generates unique ids used to correlate the log lines of a
// single registry transaction
type IdGenerator interface {
	// GetId generates a unique ID or an error if something went wrong
	GetId() (string, error)
}

type UUIDGenerator struct {
}

func (g *UUIDGenerator) GetId() (string, error) {
	id, err := uuid.NewRandom()

	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// SequentialIdGenerator produces tx-1, tx-2, ... for predictable logs
type SequentialIdGenerator struct {
	next int
}

func (g *SequentialIdGenerator) GetId() (string, error) {
	g.next++
	return fmt.Sprintf("tx-%d", g.next), nil
}
