//go:build !tesseract

package plate

import "speedguard/internal/config"

// NewEngine always fails with ErrOCRUnavailable.
// Build with -tags tesseract to get the Tesseract engine.
func NewEngine(_ *config.Config) (Engine, error) {
	return nil, ErrOCRUnavailable
}
