package tensor

import (
	"strconv"
	"strings"

	"github.com/tuanio/noisy-student-training-aped/errors"
)

// DeviceCPU is the default compute target.
const DeviceCPU = "cpu"

// Tensor is a dense row-major float tensor with an attached gradient
// buffer and a device placement tag.
type Tensor struct {
	data   []float64
	grad   []float64
	shape  []int
	stride []int
	device string
}

// New creates a zero-filled tensor with the given shape, placed on the CPU.
func New(shape ...int) *Tensor {
	size := 1
	for _, s := range shape {
		if s <= 0 {
			s = 1
		}
		size *= s
	}
	stride := make([]int, len(shape))
	for i := len(shape) - 1; i >= 0; i-- {
		if i == len(shape)-1 {
			stride[i] = 1
		} else {
			stride[i] = stride[i+1] * shape[i+1]
		}
	}
	return &Tensor{
		data:   make([]float64, size),
		grad:   make([]float64, size),
		shape:  shape,
		stride: stride,
		device: DeviceCPU,
	}
}

// FromSlice creates a 2-D tensor from rows of equal length.
func FromSlice(rows [][]float64) (*Tensor, error) {
	if len(rows) == 0 {
		return New(0, 0), nil
	}
	width := len(rows[0])
	t := New(len(rows), width)
	for i, row := range rows {
		if len(row) != width {
			return nil, errors.ShapeMismatch("ragged rows in FromSlice").
				WithDetail("row", i)
		}
		copy(t.data[i*width:], row)
	}
	return t, nil
}

// Size returns the number of elements.
func (t *Tensor) Size() int { return len(t.data) }

// Shape returns the tensor dimensions.
func (t *Tensor) Shape() []int { return t.shape }

// Device returns the current placement tag.
func (t *Tensor) Device() string { return t.device }

// Data exposes the backing values. Mutations are visible to all holders.
func (t *Tensor) Data() []float64 { return t.data }

// Grad exposes the gradient buffer.
func (t *Tensor) Grad() []float64 { return t.grad }

// At returns the element at the given indices.
func (t *Tensor) At(indices ...int) float64 {
	return t.data[t.offset(indices)]
}

// Set writes the element at the given indices.
func (t *Tensor) Set(value float64, indices ...int) {
	t.data[t.offset(indices)] = value
}

// Fill sets every element to value.
func (t *Tensor) Fill(value float64) {
	for i := range t.data {
		t.data[i] = value
	}
}

// ZeroGrad clears the gradient buffer.
func (t *Tensor) ZeroGrad() {
	for i := range t.grad {
		t.grad[i] = 0
	}
}

// Clone returns a deep copy, retaining device placement.
func (t *Tensor) Clone() *Tensor {
	nt := New(t.shape...)
	copy(nt.data, t.data)
	copy(nt.grad, t.grad)
	nt.device = t.device
	return nt
}

// To moves the tensor to the named device and returns it. Host-side Go has
// no accelerator allocation, so a move only revalidates and retags; the call
// is still the single blocking transfer point the training loop relies on.
func (t *Tensor) To(device string) (*Tensor, error) {
	if !ValidDevice(device) {
		return nil, errors.DeviceTransfer(device)
	}
	t.device = device
	return t, nil
}

// ValidDevice reports whether a device identifier is recognized:
// "cpu", "cuda", or "cuda:N".
func ValidDevice(device string) bool {
	if device == DeviceCPU || device == "cuda" {
		return true
	}
	if rest, ok := strings.CutPrefix(device, "cuda:"); ok {
		n, err := strconv.Atoi(rest)
		return err == nil && n >= 0
	}
	return false
}

func (t *Tensor) offset(indices []int) int {
	idx := 0
	for i, v := range indices {
		idx += v * t.stride[i]
	}
	return idx
}
