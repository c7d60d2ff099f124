package cmd

import (
	"context"
	"os"
	"time"

	"github.com/remobj/remobj-go/pkg/remobj"
)

// demoRoot is the built-in root value `remobj provide` exposes to every
// connecting consumer. It exists so the CLI is useful for
// smoke-testing a deployment end to end (dial it with `remobj consume`)
// without writing any Go: a real integration exposes its own domain value
// via pkg/remobj.Provide directly instead of this command.
type demoRoot struct {
	Hostname  string
	StartedAt string
	Echo      remobj.Func
	Now       remobj.Func
}

func newDemoRoot() *demoRoot {
	host, _ := os.Hostname()
	d := &demoRoot{
		Hostname:  host,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	d.Echo = func(ctx context.Context, args []interface{}) (interface{}, error) {
		if len(args) == 0 {
			return nil, nil
		}
		return args[0], nil
	}
	d.Now = func(ctx context.Context, args []interface{}) (interface{}, error) {
		return time.Now().UTC().Format(time.RFC3339Nano), nil
	}
	return d
}
