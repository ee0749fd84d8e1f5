// internal/monitor/reporter.go
package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Reporter fires the daily account summary at a fixed wall-clock time.
// It wakes on a short check interval and fires at most once per
// calendar day; the fired-date guard absorbs loop jitter within the
// target minute.
type Reporter struct {
	summarizer  *Summarizer
	formatter   *Formatter
	broadcaster Broadcaster

	hour          int
	minute        int
	checkInterval time.Duration
	logger        *zap.Logger

	lastFired string // calendar date of the last report, "2006-01-02"
	now       func() time.Time
}

// ParseReportTime parses "HH:MM" in 24h format.
func ParseReportTime(s string) (hour, minute int, err error) {
	if _, err = fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid report time %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid report time %q", s)
	}
	return hour, minute, nil
}

func NewReporter(summarizer *Summarizer, formatter *Formatter, broadcaster Broadcaster,
	hour, minute int, checkInterval time.Duration, logger *zap.Logger) *Reporter {
	return &Reporter{
		summarizer:    summarizer,
		formatter:     formatter,
		broadcaster:   broadcaster,
		hour:          hour,
		minute:        minute,
		checkInterval: checkInterval,
		logger:        logger.Named("reporter"),
		now:           time.Now,
	}
}

// Run checks the clock until the context is cancelled. Errors are
// logged and the loop keeps going.
func (r *Reporter) Run(ctx context.Context) error {
	r.logger.Info("Starting daily report scheduler",
		zap.String("report_time", fmt.Sprintf("%02d:%02d", r.hour, r.minute)))

	ticker := time.NewTicker(r.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.maybeFire(ctx)
		}
	}
}

func (r *Reporter) maybeFire(ctx context.Context) {
	now := r.now()
	if now.Hour() != r.hour || now.Minute() != r.minute {
		return
	}
	date := now.Format("2006-01-02")
	if date == r.lastFired {
		return
	}

	r.logger.Info("Generating daily account report")
	summary, err := r.summarizer.Build(ctx)
	if err != nil {
		r.logger.Error("Failed to build daily report", zap.Error(err))
		// summary stays nil: the formatter renders the degraded notice.
	}

	r.broadcaster.Broadcast(ctx, r.formatter.RenderDailyReport(summary))
	r.lastFired = date
	r.logger.Info("Daily report sent", zap.String("date", date))
}
