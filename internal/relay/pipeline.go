// Package relay fans a trigger out to every Shinobi monitor and delivers the
// resulting snapshots to a Telegram chat as one batch.
//
// A run goes through four phases: enumerate the monitors, fetch every
// snapshot concurrently, assemble the successes in monitor-list order, and
// deliver them with a single sink call. A camera that fails to answer is
// dropped from the batch; only a failed enumeration, an empty batch, or a
// failed delivery fails the run.
package relay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"shinobi-relay/internal/metrics"
	"shinobi-relay/internal/relayerr"
	"shinobi-relay/internal/telegram"
	"shinobi-relay/pkg/models"
)

// SnapshotSource is satisfied by *shinobi.Client.
type SnapshotSource interface {
	ListMonitors(ctx context.Context, group string) ([]models.Monitor, error)
	FetchSnapshot(ctx context.Context, group, monitorID string) (models.Snapshot, error)
}

// PhotoSink is satisfied by *telegram.Sink.
type PhotoSink interface {
	SendPhotoBatch(ctx context.Context, dest models.Destination, photos []models.Photo, caption string) (telegram.Delivery, error)
}

type Options struct {
	// Group is the Shinobi group key whose monitors are relayed.
	Group string
	// Concurrency caps simultaneous snapshot fetches. Zero or less means one
	// goroutine per monitor.
	Concurrency int
	// AllowEmpty makes a group with no monitors a successful no-op instead
	// of a NothingToSend failure.
	AllowEmpty bool
	// CaptionGaps names the cameras that failed in the batch caption.
	CaptionGaps bool
}

type Pipeline struct {
	source  SnapshotSource
	sink    PhotoSink
	opts    Options
	log     zerolog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func New(source SnapshotSource, sink PhotoSink, opts Options, log zerolog.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		source:  source,
		sink:    sink,
		opts:    opts,
		log:     log.With().Str("component", "relay").Logger(),
		metrics: m,
		tracer:  otel.Tracer("shinobi-relay/relay"),
	}
}

// Request describes one relay invocation.
type Request struct {
	Destination models.Destination
	Trigger     Trigger
	// Suppressed is consulted once before anything else; when it returns
	// true the run ends without touching Shinobi.
	Suppressed func() bool
}

// fetchResult is one slot of the batch, indexed by monitor position.
type fetchResult struct {
	snapshot models.Snapshot
	err      error
}

// Run executes one relay. The returned Outcome is always populated, also on
// error, so callers can report what happened.
//
// Fetches and delivery are detached from ctx cancellation: a caller that
// goes away does not abort work already in flight. Each outbound call is
// bounded by its own client timeout instead.
func (p *Pipeline) Run(ctx context.Context, req Request) (Outcome, error) {
	out := Outcome{
		ID:      uuid.NewString(),
		Trigger: req.Trigger,
	}
	start := time.Now()
	log := p.log.With().Str("relay_id", out.ID).Stringer("trigger", req.Trigger).Logger()

	if req.Suppressed != nil && req.Suppressed() {
		out.Status = StatusSuppressed
		p.finish(&out, start, nil)
		log.Info().Msg("relay suppressed while armed")
		return out, nil
	}

	ctx, span := p.tracer.Start(context.WithoutCancel(ctx), "relay.Run", trace.WithAttributes(
		attribute.String("relay.id", out.ID),
		attribute.String("relay.trigger", req.Trigger.String()),
		attribute.Int64("relay.chat_id", int64(req.Destination)),
	))
	defer span.End()

	err := p.run(ctx, req, &out, log)
	p.finish(&out, start, err)

	span.SetAttributes(
		attribute.String("relay.status", out.Status.String()),
		attribute.Int("relay.monitors", out.Monitors),
		attribute.Int("relay.sent", out.Sent),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error().Err(err).
			Int("monitors", out.Monitors).
			Int("failed", len(out.Failed)).
			Int("sent", out.Sent).
			Msg("relay failed")
		return out, err
	}

	log.Info().
		Str("status", out.Status.String()).
		Int("monitors", out.Monitors).
		Int("sent", out.Sent).
		Int("failed", len(out.Failed)).
		Dur("took", out.Duration).
		Msg("relay finished")
	return out, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, out *Outcome, log zerolog.Logger) error {
	// Enumerate
	monitors, err := p.source.ListMonitors(ctx, p.opts.Group)
	if err != nil {
		out.Status = StatusFailed
		return err
	}
	out.Monitors = len(monitors)

	if len(monitors) == 0 {
		if p.opts.AllowEmpty {
			out.Status = StatusNoMonitors
			return nil
		}
		out.Status = StatusFailed
		return relayerr.Errorf(relayerr.NothingToSend, "relay", "group %q has no monitors", p.opts.Group)
	}

	// Fetch
	slots := p.fetchAll(ctx, monitors)

	// Assemble
	photos := make([]models.Photo, 0, len(monitors))
	for i, slot := range slots {
		if slot.err != nil {
			out.Failed = append(out.Failed, Failure{MonitorID: monitors[i].ID, Err: slot.err})
			log.Warn().Err(slot.err).Str("monitor_id", monitors[i].ID).Msg("snapshot dropped from batch")
			continue
		}
		photos = append(photos, slot.snapshot.Photo())
		out.Delivered = append(out.Delivered, monitors[i].ID)
	}

	if len(photos) == 0 {
		out.Status = StatusFailed
		return &relayerr.Error{
			Kind: relayerr.NothingToSend,
			Op:   "relay",
			Err:  fmt.Errorf("all %d snapshot fetches failed, first: %w", len(out.Failed), out.Failed[0].Err),
		}
	}

	// Deliver
	caption := ""
	if p.opts.CaptionGaps {
		caption = gapCaption(out.Failed)
	}
	delivery, err := p.sink.SendPhotoBatch(ctx, req.Destination, photos, caption)
	out.Sent = delivery.Sent
	p.metrics.PhotosSent(delivery.Sent)
	if err != nil {
		out.Status = StatusFailed
		return err
	}

	out.Status = StatusDelivered
	return nil
}

// fetchAll fetches every monitor's snapshot and waits for all of them.
// Each goroutine owns exactly one slot, so no locking is needed and the
// result order matches the monitor list regardless of completion order.
func (p *Pipeline) fetchAll(ctx context.Context, monitors []models.Monitor) []fetchResult {
	slots := make([]fetchResult, len(monitors))

	var g errgroup.Group
	if p.opts.Concurrency > 0 {
		g.SetLimit(p.opts.Concurrency)
	}

	for i, m := range monitors {
		g.Go(func() error {
			ctx, span := p.tracer.Start(ctx, "relay.fetch", trace.WithAttributes(
				attribute.String("monitor.id", m.ID),
			))
			defer span.End()

			snap, err := p.source.FetchSnapshot(ctx, p.opts.Group, m.ID)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				p.metrics.SnapshotFetched(metrics.ResultFailed)
			} else {
				span.SetAttributes(attribute.Int("snapshot.bytes", snap.Size()))
				p.metrics.SnapshotFetched(metrics.ResultOK)
			}
			slots[i] = fetchResult{snapshot: snap, err: err}
			// Never fail the group: siblings must run to completion.
			return nil
		})
	}
	_ = g.Wait()

	return slots
}

func (p *Pipeline) finish(out *Outcome, start time.Time, err error) {
	out.Duration = time.Since(start)
	if err != nil {
		out.Err = err
	}
	p.metrics.RelayFinished(out.Trigger.String(), out.Status.String(), out.Duration)
}

func gapCaption(failed []Failure) string {
	if len(failed) == 0 {
		return ""
	}
	ids := make([]string, len(failed))
	for i, f := range failed {
		ids[i] = f.MonitorID
	}
	noun := "cameras"
	if len(failed) == 1 {
		noun = "camera"
	}
	return fmt.Sprintf("%d %s unavailable: %s", len(failed), noun, strings.Join(ids, ", "))
}
