package safe

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// Mat guards a gocv.Mat so that it is closed exactly once, either explicitly
// or by the finalizer.
type Mat struct {
	mat      gocv.Mat
	isValid  int32
	refCount int32
	mu       sync.RWMutex
	tag      string
}

// NewMatFromMat takes ownership of src. The caller must not close src.
func NewMatFromMat(src gocv.Mat, tag string) (*Mat, error) {
	if src.Empty() {
		src.Close()
		return nil, fmt.Errorf("source Mat is empty")
	}

	if src.Rows() <= 0 || src.Cols() <= 0 {
		rows, cols := src.Rows(), src.Cols()
		src.Close()
		return nil, fmt.Errorf("source Mat has invalid dimensions: %dx%d", cols, rows)
	}

	safeMat := &Mat{
		mat:      src,
		isValid:  1,
		refCount: 1,
		tag:      tag,
	}

	runtime.SetFinalizer(safeMat, (*Mat).finalize)

	return safeMat, nil
}

// Read loads path with the given flags.
func Read(path string, flags gocv.IMReadFlag) (*Mat, error) {
	mat := gocv.IMRead(path, flags)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("failed to read image %s", path)
	}
	return NewMatFromMat(mat, path)
}

func (sm *Mat) IsValid() bool {
	return atomic.LoadInt32(&sm.isValid) == 1
}

func (sm *Mat) Empty() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return true
	}

	return sm.mat.Empty()
}

func (sm *Mat) Rows() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return 0
	}

	return sm.mat.Rows()
}

func (sm *Mat) Cols() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return 0
	}

	return sm.mat.Cols()
}

func (sm *Mat) Type() gocv.MatType {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return gocv.MatTypeCV8UC1
	}

	return sm.mat.Type()
}

// ConvertTo returns a new Mat of type mt with every element scaled by alpha.
func (sm *Mat) ConvertTo(mt gocv.MatType, alpha float64) (*Mat, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return nil, fmt.Errorf("cannot convert invalid Mat")
	}

	dst := gocv.NewMat()
	sm.mat.ConvertToWithParams(&dst, mt, float32(alpha), 0)

	return NewMatFromMat(dst, sm.tag+"_converted")
}

// Float32Data copies the elements of a continuous single channel CV_32F Mat in
// row-major order.
func (sm *Mat) Float32Data() ([]float32, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return nil, fmt.Errorf("Mat is invalid")
	}

	if sm.mat.Type() != gocv.MatTypeCV32FC1 {
		return nil, fmt.Errorf("expected single channel float Mat, got type %d", int(sm.mat.Type()))
	}

	data, err := sm.mat.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to access Mat data: %w", err)
	}

	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}

func (sm *Mat) AddRef() {
	atomic.AddInt32(&sm.refCount, 1)
}

func (sm *Mat) Release() {
	if atomic.AddInt32(&sm.refCount, -1) == 0 {
		sm.Close()
	}
}

func (sm *Mat) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if atomic.CompareAndSwapInt32(&sm.isValid, 1, 0) {
		if !sm.mat.Empty() {
			sm.mat.Close()
		}

		runtime.SetFinalizer(sm, nil)
	}
}

func (sm *Mat) finalize() {
	if atomic.LoadInt32(&sm.isValid) == 1 {
		sm.Close()
	}
}
