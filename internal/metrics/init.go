package metrics

// InitializeMetrics pre-populates expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	storeOps := []string{
		"get", "get_by_paths", "get_by_ids", "get_all", "get_by_folder",
		"save", "save_batch", "update", "delete", "thumbnail",
		"bookmark_list", "bookmark_add", "bookmark_remove", "bookmark_has",
	}
	for _, op := range storeOps {
		StoreQueryTotal.WithLabelValues(op, "success")
		StoreQueryTotal.WithLabelValues(op, "error")
		StoreQueryDuration.WithLabelValues(op)
	}

	for _, trigger := range []string{"debounce", "forced"} {
		FlushTotal.WithLabelValues(trigger, "success")
		FlushTotal.WithLabelValues(trigger, "error")
	}

	for _, status := range []string{"new", "updated", "skipped", "error"} {
		BuildFilesProcessed.WithLabelValues(status)
	}

	for _, status := range []string{"success", "error", "error_decode", "error_encode"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}
}
