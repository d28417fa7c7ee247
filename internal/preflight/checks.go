package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"fxpipe/internal/config"
	"fxpipe/internal/fx"
	"fxpipe/internal/services/ecb"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckRegistry verifies that every configured currency is a known ISO 4217
// code and forms a valid pair with the base currency.
func CheckRegistry(cfg *config.Config) Result {
	const name = "Currency registry"

	var unknown []string
	for _, id := range cfg.Pairs() {
		if _, err := fx.ParsePair(id); err != nil {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return Result{Name: name, Detail: "invalid pairs: " + strings.Join(unknown, ", ")}
	}
	return Result{Name: name, Passed: true, Detail: strings.Join(cfg.Pairs(), ", ")}
}

// CheckRunLock reports whether another run currently holds the lock file.
func CheckRunLock(path string) Result {
	const name = "Run lock"

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{Name: name, Passed: true, Detail: "idle"}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !ok {
		return Result{Name: name, Detail: "another run is in progress"}
	}
	_ = lock.Unlock()
	return Result{Name: name, Passed: true, Detail: "idle"}
}

// CheckSource requests the latest observation of the first configured pair.
// It uses a 10-second timeout and a single attempt (no retries).
func CheckSource(ctx context.Context, cfg *config.Config) Result {
	const name = "ECB data API"

	pairs := cfg.Pairs()
	if len(pairs) == 0 {
		return Result{Name: name, Detail: "no currencies configured"}
	}
	pair, err := fx.ParsePair(pairs[0])
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := ecb.NewClient(ecb.Config{
		BaseURL:        cfg.Source.BaseURL,
		TimeoutSeconds: 10,
		RetryAttempts:  1,
	})
	if err := client.HealthCheck(checkCtx, pair); err != nil {
		return Result{Name: name, Detail: summarizeSourceError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// summarizeSourceError produces a human-readable summary for source health check failures.
func summarizeSourceError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (ECB API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (ECB API unreachable)"
	}
	return err.Error()
}
