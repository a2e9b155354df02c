package tensor

import (
	"testing"

	"github.com/tuanio/noisy-student-training-aped/errors"
)

func TestNew_ShapeAndSize(t *testing.T) {
	x := New(2, 3)
	if x.Size() != 6 {
		t.Errorf("expected 6 elements, got %d", x.Size())
	}
	if x.Device() != DeviceCPU {
		t.Errorf("expected cpu placement, got %s", x.Device())
	}
}

func TestTensor_AtSet_RowMajor(t *testing.T) {
	x := New(2, 3)
	x.Set(1.5, 1, 2)
	if got := x.At(1, 2); got != 1.5 {
		t.Errorf("expected 1.5, got %v", got)
	}
	if got := x.Data()[5]; got != 1.5 {
		t.Errorf("expected row-major layout, data[5]=%v", got)
	}
}

func TestFromSlice_RaggedRowsRejected(t *testing.T) {
	_, err := FromSlice([][]float64{{1, 2}, {3}})
	if !errors.HasCode(err, errors.ErrCodeShapeMismatch) {
		t.Errorf("expected SHAPE_MISMATCH, got %v", err)
	}
}

func TestTensor_ZeroGrad_ClearsBuffer(t *testing.T) {
	x := New(4)
	x.Grad()[2] = 3.0
	x.ZeroGrad()
	for i, g := range x.Grad() {
		if g != 0 {
			t.Errorf("grad[%d]=%v after ZeroGrad", i, g)
		}
	}
}

func TestTensor_Clone_Independent(t *testing.T) {
	x := New(2)
	x.Set(7, 0)
	y := x.Clone()
	y.Set(9, 0)
	if x.At(0) != 7 {
		t.Error("clone mutation leaked into original")
	}
}

func TestTensor_To_ValidatesDevice(t *testing.T) {
	x := New(2)
	if _, err := x.To("cuda:0"); err != nil {
		t.Errorf("cuda:0 should be accepted: %v", err)
	}
	if x.Device() != "cuda:0" {
		t.Errorf("expected retag, got %s", x.Device())
	}
	_, err := x.To("tpu")
	if !errors.HasCode(err, errors.ErrCodeDeviceTransfer) {
		t.Errorf("expected DEVICE_TRANSFER_FAILED, got %v", err)
	}
}

func TestValidDevice_Forms(t *testing.T) {
	for _, dev := range []string{"cpu", "cuda", "cuda:3"} {
		if !ValidDevice(dev) {
			t.Errorf("expected %q valid", dev)
		}
	}
	for _, dev := range []string{"", "cuda:", "cuda:-1", "gpu0"} {
		if ValidDevice(dev) {
			t.Errorf("expected %q invalid", dev)
		}
	}
}
