package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/five82/foilwatch/internal/artifact"
	"github.com/five82/foilwatch/internal/optimizer"
	"github.com/five82/foilwatch/internal/state"
	"github.com/five82/foilwatch/internal/watch"
)

// Controller connects the supervisor, the store and the artifact renderer.
// The UI drives it through Submit and Cancel.
type Controller struct {
	ctx      context.Context
	sup      *watch.Supervisor
	store    *state.Store
	renderer artifact.Renderer
	observer watch.ProgressSink
}

// newController builds a controller whose sessions report into store.
// observer, when set, also sees every progress point after the store.
func newController(ctx context.Context, env *environment, store *state.Store, observer watch.ProgressSink) *Controller {
	c := &Controller{
		ctx:      ctx,
		store:    store,
		renderer: artifact.Renderer{Fetcher: env.client, Dir: env.cfg.OutputDir},
		observer: observer,
	}
	c.sup = watch.NewSupervisor(env.client, env.cfg.WatchConfig(), watch.Hooks{
		OnStart: func(h *watch.Handle) {
			store.Begin(h.ID, h.Request)
		},
		OnFinish: func(h *watch.Handle, out watch.Outcome) {
			store.Finish(h.ID, out)
		},
	})
	return c
}

// Submit posts req and starts watching it, replacing any running session.
// Failures to start are recorded on the store as well as returned.
func (c *Controller) Submit(req optimizer.JobRequest) (*watch.Handle, error) {
	h, err := c.sup.Submit(c.ctx, req, c.sinks())
	if err != nil {
		c.store.Fail(err)
		return nil, err
	}
	return h, nil
}

// Cancel stops the running session, if any, and waits for it to exit.
func (c *Controller) Cancel() {
	c.sup.Cancel()
}

func (c *Controller) sinks() watch.Sinks {
	progress := watch.ProgressSink(c.store)
	if c.observer != nil {
		progress = watch.ProgressFunc(func(ctx context.Context, p optimizer.DataPoint) error {
			if err := c.store.Progress(ctx, p); err != nil {
				return err
			}
			return c.observer.Progress(ctx, p)
		})
	}
	return watch.Sinks{
		Progress:   progress,
		Completion: watch.CompletionFunc(c.complete),
	}
}

// complete records the result and renders the airfoil. A failed render is
// kept on the snapshot but does not fail the session.
func (c *Controller) complete(ctx context.Context, res optimizer.Result) error {
	if err := c.store.Complete(ctx, res); err != nil {
		return err
	}
	path, err := c.renderer.Render(ctx, res)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("artifact-failed")
	}
	c.store.SetArtifact(path, err)
	return nil
}
