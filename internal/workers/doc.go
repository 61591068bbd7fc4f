/*
Package workers determines worker pool sizes for the index builder in
containerized environments.

Go 1.19+ sets GOMAXPROCS from container CPU limits, while
runtime.NumCPU() still reports the host's count. Sizing pools from
GOMAXPROCS keeps a pod with a 2-CPU limit from spawning 64 workers on
a 64-core node.

	// CPU-heavy work (thumbnail encoding)
	n := workers.ForCPU(8)

	// I/O-heavy work (hashing, walking the image tree)
	n := workers.ForIO(16)

	// Mixed work (read file, decode, write record)
	n := workers.ForMixed(12)

The BUILD_WORKERS environment variable overrides the calculation,
which is useful when tuning a specific deployment.
*/
package workers
