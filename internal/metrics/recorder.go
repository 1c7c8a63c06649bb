package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrSnakeDoc/skylog/internal/domain"
	"github.com/MrSnakeDoc/skylog/internal/observation"
)

const namespace = "skylog"

// Recorder publishes observation store events as Prometheus series.
type Recorder struct {
	added          *prometheus.CounterVec
	validation     *prometheus.CounterVec
	writes         *prometheus.CounterVec
	writeBytes     prometheus.Gauge
	decodeFailures prometheus.Counter
	count          prometheus.Gauge
}

var _ observation.Metrics = (*Recorder)(nil)

// NewRecorder builds the collectors and registers them on reg. Category
// and validation code series are pre-initialised so dashboards see zeros
// instead of gaps.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		added: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_added_total",
			Help:      "Observations accepted and persisted, by category.",
		}, []string{"category"}),
		validation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Rejected observation candidates, by error code.",
		}, []string{"code"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_writes_total",
			Help:      "Snapshot writes to the durable slot, by result.",
		}, []string{"result"}),
		writeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_write_bytes",
			Help:      "Size of the last successfully written snapshot.",
		}),
		decodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_decode_failures_total",
			Help:      "Snapshots that could not be decoded on load.",
		}),
		count: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observations",
			Help:      "Observations currently held in memory.",
		}),
	}

	for _, c := range []prometheus.Collector{r.added, r.validation, r.writes, r.writeBytes, r.decodeFailures, r.count} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	for _, c := range domain.Categories {
		r.added.WithLabelValues(string(c))
	}
	for _, code := range []string{
		domain.ErrMissingPhoto.Code,
		domain.ErrMissingDate.Code,
		domain.ErrInvalidDate.Code,
		domain.ErrInvalidCategory.Code,
	} {
		r.validation.WithLabelValues(code)
	}
	r.writes.WithLabelValues("ok")
	r.writes.WithLabelValues("error")

	return r, nil
}

func (r *Recorder) ObservationAdded(c domain.Category) {
	r.added.WithLabelValues(string(c)).Inc()
}

func (r *Recorder) ValidationFailed(code string) {
	r.validation.WithLabelValues(code).Inc()
}

func (r *Recorder) SnapshotWritten(bytes int, err error) {
	if err != nil {
		r.writes.WithLabelValues("error").Inc()
		return
	}
	r.writes.WithLabelValues("ok").Inc()
	r.writeBytes.Set(float64(bytes))
}

func (r *Recorder) SnapshotDecodeFailed() { r.decodeFailures.Inc() }

func (r *Recorder) ObservationCount(n int) { r.count.Set(float64(n)) }
