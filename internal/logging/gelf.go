package logging

import (
	"fmt"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGELFWriter dials a Graylog GELF UDP input. Every Write becomes one
// GELF message tagged with the service name as facility.
func NewGELFWriter(address string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Graylog at %s: %w", address, err)
	}
	w.Facility = ServiceName
	return w, nil
}
