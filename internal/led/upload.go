package led

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"

	diag "github.com/coreman2200/marquee/internal/diagnostics"
)

const DefaultPacketDelay = 100 * time.Millisecond

var (
	ErrUploadInProgress = errors.New("upload already in progress")
	ErrNothingToUpload  = errors.New("no packets to upload")
)

type UploadOptions struct {
	// Delay separates consecutive packets.
	Delay time.Duration
	// ClearFirst sends a blank packet ahead of the header.
	ClearFirst bool
	PacketSize int
}

// Uploader sends packet sequences one upload at a time.
type Uploader struct {
	open func() (Driver, error)
	opts UploadOptions
	hub  *diag.Hub
	busy atomic.Bool
}

func NewUploader(open func() (Driver, error), opts UploadOptions, hub *diag.Hub) *Uploader {
	if opts.PacketSize <= 0 {
		opts.PacketSize = PacketSize
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	return &Uploader{open: open, opts: opts, hub: hub}
}

// Busy reports whether an upload is running.
func (u *Uploader) Busy() bool { return u.busy.Load() }

// Upload connects, writes packets strictly in order and disconnects. It
// aborts on the first failure or when ctx is done; the next upload starts
// over from the first packet. It returns the number of packets written.
func (u *Uploader) Upload(ctx context.Context, packets [][]byte) (int, error) {
	if !u.busy.CompareAndSwap(false, true) {
		u.hub.Publish(diag.Diagnostic{Severity: diag.Warn, Code: diag.UploadBusy, Summary: "Upload already running"})
		return 0, ErrUploadInProgress
	}
	defer u.busy.Store(false)

	if len(packets) == 0 {
		u.hub.Publish(diag.Diagnostic{Severity: diag.Warn, Code: diag.UploadEmpty, Summary: "Nothing to upload"})
		return 0, ErrNothingToUpload
	}
	if u.opts.ClearFirst {
		packets = append([][]byte{make([]byte, u.opts.PacketSize)}, packets...)
	}

	drv, err := u.open()
	if err != nil {
		u.fail(err, 0, len(packets))
		return 0, err
	}
	defer func() {
		if err := drv.Close(); err != nil {
			log.Warn().Err(err).Msg("driver close")
		}
	}()

	start := time.Now()
	u.hub.Publish(diag.Diagnostic{
		Severity: diag.Info, Code: diag.UploadStarted, Summary: "Uploading",
		Evidence: map[string]any{"packets": len(packets)},
	})
	for i, pkt := range packets {
		if i > 0 {
			if err := sleep(ctx, u.opts.Delay); err != nil {
				u.fail(err, i, len(packets))
				return i, err
			}
		} else if err := ctx.Err(); err != nil {
			u.fail(err, 0, len(packets))
			return 0, err
		}
		if len(pkt) > u.opts.PacketSize {
			err := fmt.Errorf("packet %d: %w", i, ErrPacketTooLarge)
			u.fail(err, i, len(packets))
			return i, err
		}
		if err := drv.Write(pkt); err != nil {
			err = fmt.Errorf("packet %d/%d: %w", i+1, len(packets), err)
			u.fail(err, i, len(packets))
			return i, err
		}
	}

	log.Info().Int("packets", len(packets)).Dur("took", time.Since(start)).Msg("upload complete")
	u.hub.Publish(diag.Diagnostic{
		Severity: diag.Info, Code: diag.UploadDone, Summary: "Upload complete",
		Evidence: map[string]any{"packets": len(packets), "ms": time.Since(start).Milliseconds()},
	})
	return len(packets), nil
}

func (u *Uploader) fail(err error, sent, total int) {
	log.Error().Err(err).Int("sent", sent).Int("total", total).Msg("upload failed")
	d := diag.Diagnostic{
		Severity: diag.Err,
		Code:     diag.UploadFailed,
		Summary:  "Upload failed",
		Detail:   err.Error(),
		Evidence: map[string]any{"sent": sent, "total": total},
	}
	switch {
	case errors.Is(err, ErrDeviceNotFound), errors.Is(err, ErrUnsupported):
		d.Code = diag.DeviceNotFound
		d.Summary = "Badge not connected"
		d.LikelyCauses = []string{"badge unplugged", "missing udev rule for 0416:5020"}
		d.SuggestedFixes = []string{"plug the badge in and retry", "run `marquee devices` to list what is attached"}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		d.Severity = diag.Warn
		d.Summary = "Upload cancelled"
	default:
		d.SuggestedFixes = []string{"retry the upload; it restarts from the header"}
	}
	u.hub.Publish(d)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
