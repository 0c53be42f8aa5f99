package canvas

import (
	"context"
	"os"
	"testing"
)

// testContext mirrors testing.T.Context (Go 1.24) for the Go 1.21 toolchain:
// the returned context is canceled when the test finishes.
func testContext(t testing.TB) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

// testChdir mirrors testing.T.Chdir (Go 1.24) for the Go 1.21 toolchain:
// it changes the working directory and restores it when the test finishes.
func testChdir(t testing.TB, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			t.Fatal(err)
		}
	})
}
