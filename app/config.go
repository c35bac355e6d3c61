package main

import "io"

// Configuration and Options

// ReaderConfig holds reader configuration options
type ReaderConfig struct {
	MaxConcurrency int
	ValidationMode ValidationLevel
}

// ValidationLevel defines validation strictness
type ValidationLevel int

const (
	ValidationNone ValidationLevel = iota
	ValidationBasic
	ValidationStrict
)

// ReaderOption represents a functional option for reader configuration
type ReaderOption func(*ReaderConfig)

// WithMaxConcurrency sets the maximum number of concurrent page reads
func WithMaxConcurrency(max int) ReaderOption {
	return func(cfg *ReaderConfig) {
		cfg.MaxConcurrency = max
	}
}

// WithValidation sets the validation level
func WithValidation(level ValidationLevel) ReaderOption {
	return func(cfg *ReaderConfig) {
		cfg.ValidationMode = level
	}
}

// DefaultReaderConfig returns the default configuration
func DefaultReaderConfig() *ReaderConfig {
	return &ReaderConfig{
		MaxConcurrency: 10,
		ValidationMode: ValidationBasic,
	}
}

// Resource Management

// ResourceManager handles cleanup of multiple resources
type ResourceManager struct {
	resources []io.Closer
	cleaners  []func() error
}

// NewResourceManager creates a new resource manager
func NewResourceManager() *ResourceManager {
	return &ResourceManager{
		resources: make([]io.Closer, 0),
		cleaners:  make([]func() error, 0),
	}
}

// Add adds a closeable resource to be managed
func (rm *ResourceManager) Add(resource io.Closer) {
	rm.resources = append(rm.resources, resource)
}

// AddCleaner adds a custom cleanup function
func (rm *ResourceManager) AddCleaner(cleaner func() error) {
	rm.cleaners = append(rm.cleaners, cleaner)
}

// Close closes all managed resources in reverse order (LIFO)
func (rm *ResourceManager) Close() error {
	var lastErr error

	// Run custom cleaners first (LIFO)
	for i := len(rm.cleaners) - 1; i >= 0; i-- {
		if err := rm.cleaners[i](); err != nil {
			lastErr = err
		}
	}

	// Close resources (LIFO)
	for i := len(rm.resources) - 1; i >= 0; i-- {
		if err := rm.resources[i].Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}
