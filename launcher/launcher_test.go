package launcher_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/br4qua/qua-play/launcher"
)

func TestRun_MissingPlayerPathFailsBeforeAnyPrivilegeChange(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-player")

	err := launcher.Run(0, missing, nil)
	assert.True(t, errors.Is(err, launcher.ErrPlayerMissing))
}
