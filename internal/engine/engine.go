package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// JobHandle identifies one render job on the external rendering service.
type JobHandle string

type JobState string

const (
	JobPending   JobState = "pending"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// JobStatus is one poll observation. AssetURL is set on completion, Reason on
// failure.
type JobStatus struct {
	State    JobState
	AssetURL string
	Reason   string
}

// Renderer is the external rendering service boundary. Jobs are processed
// asynchronously: Submit returns a handle, Poll reports progress.
type Renderer interface {
	Submit(ctx context.Context, templateID string, layers Layers) (JobHandle, error)
	Poll(ctx context.Context, handle JobHandle) (JobStatus, error)
}

// Options tune job polling. Zero values fall back to defaults.
type Options struct {
	PollInterval time.Duration // between poll attempts, default 1s
	PollTimeout  time.Duration // per-job budget, default 60s
}

// Engine is the config-driven creative generation engine: it resolves slot
// sources through the generator registry, builds per-creative layer maps and
// drives render jobs on the external renderer.
type Engine struct {
	registry     *Registry
	renderer     Renderer
	pollInterval time.Duration
	pollTimeout  time.Duration
}

func New(registry *Registry, renderer Renderer, opts Options) *Engine {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 60 * time.Second
	}
	return &Engine{
		registry:     registry,
		renderer:     renderer,
		pollInterval: opts.PollInterval,
		pollTimeout:  opts.PollTimeout,
	}
}

type renderJob struct {
	index      int
	variant    string
	templateID string
	layers     Layers

	handle    JobHandle
	submitted bool
	failure   *RenderError
	assetURL  string
}

// Generate produces count creatives for the topic under the given config.
//
// Config and generator problems are fatal and return no creatives. Render
// failures (including poll timeouts) are collected per job: the successful
// subset is returned together with a *BatchError enumerating failed indices,
// so callers decide whether a partial batch is acceptable.
func (e *Engine) Generate(ctx context.Context, topic Topic, cfg CreativeTypeConfig, inputs, options map[string]any, count int) ([]Creative, error) {
	slots := enabledSlots(cfg.Slots, inputs, options)

	plans, err := e.validate(cfg, slots, count)
	if err != nil {
		return nil, err
	}

	results, err := e.resolve(ctx, topic, cfg, plans, inputs, options, count)
	if err != nil {
		return nil, err
	}

	jobs := make([]renderJob, count)
	for i := range jobs {
		variant, templateID := variantFor(cfg, i)
		jobs[i] = renderJob{
			index:      i,
			variant:    variant,
			templateID: templateID,
			layers:     buildLayers(slots, plans, results, i),
		}
	}

	e.submitAll(ctx, jobs)
	e.pollAll(ctx, jobs)

	return assemble(cfg.Name, jobs)
}

// submitAll submits every job up front; the renderer is built for many
// simultaneous jobs. A rejected submission becomes a render failure for that
// creative only.
func (e *Engine) submitAll(ctx context.Context, jobs []renderJob) {
	var g errgroup.Group
	for i := range jobs {
		job := &jobs[i]
		g.Go(func() error {
			handle, err := e.renderer.Submit(ctx, job.templateID, job.layers)
			if err != nil {
				job.failure = &RenderError{Index: job.index, Reason: err.Error()}
				return nil
			}
			job.handle = handle
			job.submitted = true
			log.Debug().Int("creative", job.index).Str("job", string(handle)).Msg("render job submitted")
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) pollAll(ctx context.Context, jobs []renderJob) {
	var g errgroup.Group
	for i := range jobs {
		job := &jobs[i]
		if !job.submitted {
			continue
		}
		g.Go(func() error {
			job.assetURL, job.failure = e.pollJob(ctx, job.handle, job.index)
			return nil
		})
	}
	_ = g.Wait()
}

// pollJob re-checks one job on a fixed interval until it reaches a terminal
// state or the per-job budget runs out.
func (e *Engine) pollJob(ctx context.Context, handle JobHandle, index int) (string, *RenderError) {
	ctx, cancel := context.WithTimeout(ctx, e.pollTimeout)
	defer cancel()

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		status, err := e.renderer.Poll(ctx, handle)
		if err != nil {
			return "", &RenderError{Index: index, Reason: err.Error()}
		}
		switch status.State {
		case JobCompleted:
			return status.AssetURL, nil
		case JobFailed:
			return "", &RenderError{Index: index, Reason: status.Reason}
		}

		select {
		case <-ctx.Done():
			return "", &RenderError{Index: index, Timeout: true}
		case <-ticker.C:
		}
	}
}

// assemble collects finished creatives in original index order. Any failed
// job turns the invocation into a partial-failure result.
func assemble(creativeType string, jobs []renderJob) ([]Creative, error) {
	var (
		creatives []Creative
		batchErr  BatchError
	)
	for _, job := range jobs {
		if job.failure != nil {
			log.Warn().Int("creative", job.index).Err(job.failure).Msg("render job failed")
			batchErr.Failed = append(batchErr.Failed, job.failure)
			continue
		}
		batchErr.Succeeded = append(batchErr.Succeeded, job.index)
		creatives = append(creatives, Creative{
			CreativeType: creativeType,
			Variant:      job.variant,
			Layers:       job.layers,
			AssetURL:     job.assetURL,
		})
	}
	if len(batchErr.Failed) > 0 {
		return creatives, &batchErr
	}
	return creatives, nil
}
