package process

import (
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliveSelf(t *testing.T) {
	assert.True(t, OS{}.Alive(os.Getpid()))
	assert.False(t, OS{}.Alive(0))
	assert.False(t, OS{}.Alive(-1))
}

func TestTerminate(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Skipf("sleep not available: %v", err)
	}
	pid := cmd.Process.Pid

	require.NoError(t, OS{}.Terminate(pid))
	_ = cmd.Wait()

	assert.Eventually(t, func() bool { return !OS{}.Alive(pid) }, 2*time.Second, 20*time.Millisecond)
	// Already reaped.
	assert.NoError(t, OS{}.Terminate(pid))
}

func TestTerminateInvalidPid(t *testing.T) {
	assert.Error(t, OS{}.Terminate(0))
}
