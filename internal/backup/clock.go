package backup

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current time. Run timestamps, history entries and
// schedule bookkeeping all go through it so tests can pin time.
type Clock interface {
	Now() time.Time
}

// IDGenerator supplies entity IDs.
type IDGenerator interface {
	New() string
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// UUIDGenerator issues random UUID strings.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.NewString() }

var (
	_ Clock       = RealClock{}
	_ IDGenerator = UUIDGenerator{}
)
