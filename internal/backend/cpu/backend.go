// Package cpu implements the pure Go CPU backend for the embedding kernels.
package cpu

import (
	"github.com/born-ml/embedbag/internal/tensor"
)

// CPUBackend implements the embedding kernels on CPU.
type CPUBackend struct {
	device tensor.Device
}

// Compile-time check that CPUBackend implements tensor.Backend.
var _ tensor.Backend = (*CPUBackend)(nil)

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}
