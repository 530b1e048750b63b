package rollup

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metric names and help strings are a published interface: downstream
// scrapers and dashboards match on them, so they must not drift.
const (
	usedBytesName   = "used_bytes"
	usedBytesHelp   = "The current number of bytes used on a mako"
	objectCountName = "object_count"
	objectCountHelp = "The current number of objects on a mako"
	durationName    = "rollup_duration_seconds"
	durationHelp    = "Duration in seconds of the mako rollup process"
	lastRunName     = "rollup_last_run_time"
	lastRunHelp     = "Last run of the mako rollup process expressed as a UNIX timestamp"
)

// registry builds a registry holding this report's samples. Each report
// gets its own registry so that stale accounts from an earlier run can
// never leak into a later document.
func (rep *Report) registry() *prometheus.Registry {
	usedBytes := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: usedBytesName,
		Help: usedBytesHelp,
	}, []string{"account"})
	objectCount := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: objectCountName,
		Help: objectCountHelp,
	}, []string{"account"})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: durationName,
		Help: durationHelp,
	})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: lastRunName,
		Help: lastRunHelp,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(usedBytes, objectCount, duration, lastRun)

	for account, u := range rep.Accounts {
		usedBytes.WithLabelValues(account).Set(float64(u.Bytes))
		objectCount.WithLabelValues(account).Set(float64(u.Objects))
	}
	duration.Set(rep.Duration.Seconds())
	lastRun.Set(float64(rep.Completed.Unix()))
	return reg
}

// Render writes the report to w in the Prometheus text exposition format.
func (rep *Report) Render(w io.Writer) error {
	mfs, err := rep.registry().Gather()
	if err != nil {
		return fmt.Errorf("gathering rollup metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encoding rollup metrics: %w", err)
		}
	}
	return nil
}

// WriteFile writes the report to path in the text exposition format,
// atomically replacing any previous file so that a scraper following the
// path never observes a half-written document.
func (rep *Report) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, rep.registry()); err != nil {
		return fmt.Errorf("writing rollup metrics to %s: %w", path, err)
	}
	return nil
}
