// Package wait polls a remote condition until it settles, with a bounded
// number of attempts.
package wait

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/project-copacetic/nessus/pkg/errdefs"
)

// ErrTimeout is wrapped by the error Until returns when the attempt budget runs out.
var ErrTimeout = errors.New("condition still pending after the last attempt")

// Waitable is a long-running remote job that can report whether it is still
// pending, using a collaborator of type C to ask.
type Waitable[C any] interface {
	IsPending(ctx context.Context, c C) (bool, error)
}

// Func adapts a plain function to Waitable.
type Func[C any] func(ctx context.Context, c C) (bool, error)

func (f Func[C]) IsPending(ctx context.Context, c C) (bool, error) {
	return f(ctx, c)
}

type Options struct {
	// Interval is the pause after each check that found the job pending.
	Interval time.Duration
	// MaxAttempts is the number of re-checks allowed after the first one.
	// nil means no limit.
	MaxAttempts *uint64
}

// Attempts returns a budget of n re-checks for Options.MaxAttempts.
func Attempts(n uint64) *uint64 {
	return &n
}

// For testing.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Until checks w until it is no longer pending. A check error is returned
// as is, without retrying. With a budget of n, at most n+1 checks are made;
// if the last one still finds w pending, a timeout error is returned. There
// is no pause after the last check.
func Until[C any](ctx context.Context, w Waitable[C], c C, opts Options) error {
	var remaining uint64
	bounded := opts.MaxAttempts != nil
	if bounded {
		remaining = *opts.MaxAttempts
	}

	for check := 1; ; check++ {
		pending, err := w.IsPending(ctx, c)
		if err != nil {
			return err
		}
		if !pending {
			log.Debugf("wait: settled after %d checks", check)
			return nil
		}
		if bounded {
			if remaining == 0 {
				return errdefs.Timeout("wait", errors.Wrapf(ErrTimeout, "%d checks", check))
			}
			remaining--
		}
		log.Debugf("wait: still pending after check %d, sleeping %s", check, opts.Interval)
		if err := sleep(ctx, opts.Interval); err != nil {
			return err
		}
	}
}
