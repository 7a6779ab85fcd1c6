package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the domain metrics. A nil *Recorder records nothing.
type Recorder struct {
	chunksStored  *prometheus.CounterVec
	chunkBytes    prometheus.Counter
	merges        *prometheus.CounterVec
	mergeDuration prometheus.Histogram
	mergedBytes   prometheus.Counter
	streamBytes   prometheus.Counter
	streams       *prometheus.CounterVec
	tokenFailures *prometheus.CounterVec
}

// New creates the domain metrics and registers them with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		chunksStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chunkvault_chunks_stored_total",
			Help: "Chunk uploads by outcome.",
		}, []string{"outcome"}),
		chunkBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chunkvault_chunk_bytes_total",
			Help: "Bytes received in chunk uploads.",
		}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chunkvault_merges_total",
			Help: "Merge attempts by outcome.",
		}, []string{"outcome"}),
		mergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chunkvault_merge_duration_seconds",
			Help:    "Time spent assembling chunks into a file.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		mergedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chunkvault_merged_bytes_total",
			Help: "Bytes written into assembled files.",
		}),
		streamBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chunkvault_stream_bytes_total",
			Help: "Bytes scheduled for streaming to clients.",
		}),
		streams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chunkvault_streams_total",
			Help: "Stream responses by status code.",
		}, []string{"status"}),
		tokenFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chunkvault_token_failures_total",
			Help: "Rejected capability tokens by reason.",
		}, []string{"reason"}),
	}

	for _, c := range []prometheus.Collector{
		r.chunksStored, r.chunkBytes, r.merges, r.mergeDuration,
		r.mergedBytes, r.streamBytes, r.streams, r.tokenFailures,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) ChunkStored(bytes int64, err error) {
	if r == nil {
		return
	}
	r.chunksStored.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		r.chunkBytes.Add(float64(bytes))
	}
}

func (r *Recorder) Merged(seconds float64, bytes int64, err error) {
	if r == nil {
		return
	}
	r.merges.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		r.mergeDuration.Observe(seconds)
		r.mergedBytes.Add(float64(bytes))
	}
}

func (r *Recorder) Streamed(status string, bytes int64) {
	if r == nil {
		return
	}
	r.streams.WithLabelValues(status).Inc()
	r.streamBytes.Add(float64(bytes))
}

func (r *Recorder) TokenRejected(reason string) {
	if r == nil {
		return
	}
	r.tokenFailures.WithLabelValues(reason).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
