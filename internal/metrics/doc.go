// Package metrics provides Prometheus instrumentation for the image
// browser application.
//
// All metrics are prefixed with "image_browser_" to avoid naming
// collisions with other applications. Metrics are registered with the
// default Prometheus registry via promauto; expose them by mounting
// promhttp.Handler() on the metrics endpoint:
//
//	mux.Handle("/metrics", promhttp.Handler())
//
// Categories:
//
//   - HTTP: request counts, durations, and in-flight gauge
//   - Store: metadata store query counts/durations and record gauges
//   - Persistence: snapshot flush counts, durations, retries, and
//     debounce scheduling
//   - Index builder: files processed by the batch build pipeline
//   - Thumbnails: generation counts and durations
//
// To record metrics from other packages, import this package and use
// the exported metric variables:
//
//	metrics.StoreQueryTotal.WithLabelValues("get", "success").Inc()
//	metrics.FlushDuration.Observe(0.123)
package metrics
