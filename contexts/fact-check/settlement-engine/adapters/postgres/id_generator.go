package postgresadapter

import (
	"context"

	"validnews/contexts/fact-check/settlement-engine/ports"

	"github.com/google/uuid"
)

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.IDGenerator = UUIDGenerator{}
