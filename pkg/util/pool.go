package util

import "runtime"

// GetOptimalPoolSize returns the worker count for CPU-bound tasks.
//
// Formula: min(max(runtime.NumCPU() * 2, 4), 32)
//
// Reasoning:
//   - Minimum 4: A batch export still overlaps rendering with disk writes on small machines
//   - 2× CPU cores: Tree-sitter parses run in CGO and PNG saves block on I/O
//   - Maximum 32: Caps decoded SVG and RGBA buffers held at once
//
// Examples:
//   - 1-2 cores: 4 (minimum enforced)
//   - 4 cores: 8
//   - 8 cores: 16
//   - 16 cores: 32 (maximum enforced)
//   - 24 cores: 32 (capped)
//
// This is used for:
//   - Parser pool size (tree-sitter parsers per grammar)
//   - Batch export workers (rasterization is CPU-bound, saving is I/O-bound)
func GetOptimalPoolSize() int {
	poolSize := runtime.NumCPU() * 2

	// Enforce minimum
	if poolSize < 4 {
		poolSize = 4
	}

	// Enforce maximum
	if poolSize > 32 {
		poolSize = 32
	}

	return poolSize
}

// GetOptimalPoolSizeWithOverride returns pool size with optional override.
//
// If override > 0, uses override value (the --workers flag, tests).
// Otherwise, uses GetOptimalPoolSize().
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
