package postgresadapter

import (
	"time"

	"validnews/contexts/fact-check/voting-engine/ports"
)

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

var _ ports.Clock = SystemClock{}
