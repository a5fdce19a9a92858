package window

import (
	"github.com/google/uuid"

	"github.com/dgannon/appdriver/internal/platform"
)

// StateToken is an opaque capture of a window's placement, valid only for
// the paired RestoreAfterOCR call.
type StateToken struct {
	id        uuid.UUID
	windowID  int
	placement platform.Placement
}

func newStateToken(windowID int, p platform.Placement) StateToken {
	return StateToken{id: uuid.New(), windowID: windowID, placement: p}
}

// ID identifies the token in logs and diagnostics.
func (t StateToken) ID() string {
	return t.id.String()
}
