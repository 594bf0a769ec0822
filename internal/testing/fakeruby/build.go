package fakeruby

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// EnginePackage is the reactor that drives Interpreter through guest.Adapter.
const EnginePackage = "github.com/Shopify/ruvy/internal/testing/fakeruby/engine"

var (
	engineOnce sync.Once
	engineBin  []byte
	engineErr  error
)

// Engine returns EnginePackage compiled for wasip1, building it once per test binary. The test is skipped in short
// mode or when the go command is not on the PATH.
func Engine(t testing.TB) []byte {
	t.Helper()
	if testing.Short() {
		t.Skip("building the engine is slow")
	}

	engineOnce.Do(func() { engineBin, engineErr = buildEngine() })
	if errors.Is(engineErr, exec.ErrNotFound) {
		t.Skipf("cannot build %s: %v", EnginePackage, engineErr)
	}
	require.NoError(t, engineErr)
	return engineBin
}

func buildEngine() ([]byte, error) {
	goCmd, err := exec.LookPath("go")
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "fakeruby")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "engine.wasm")
	cmd := exec.Command(goCmd, "build", "-buildmode=c-shared", "-o", out, EnginePackage)
	cmd.Env = append(os.Environ(), "GOOS=wasip1", "GOARCH=wasm", "CGO_ENABLED=0")
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("go build %s: %w\n%s", EnginePackage, err, output)
	}
	return os.ReadFile(out)
}
