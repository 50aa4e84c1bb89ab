package safe

import (
	"fmt"

	"gocv.io/x/gocv"
)

// MaxDimension bounds either side of a loaded map.
const MaxDimension = 32768

func ValidateMatForOperation(mat *Mat, operation string) error {
	if mat == nil {
		return fmt.Errorf("Mat is nil for operation: %s", operation)
	}

	if !mat.IsValid() {
		return fmt.Errorf("Mat is invalid for operation: %s", operation)
	}

	if mat.Empty() {
		return fmt.Errorf("Mat is empty for operation: %s", operation)
	}

	return ValidateDimensions(mat.Cols(), mat.Rows(), operation)
}

func ValidateDimensions(width, height int, operation string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d for operation: %s", width, height, operation)
	}

	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("dimensions %dx%d exceed maximum size for operation: %s", width, height, operation)
	}

	return nil
}

// UnitScale returns the factor that maps the full range of a single channel
// Mat type onto [0,1]. Float types are assumed to be normalized already.
func UnitScale(matType gocv.MatType, operation string) (float64, error) {
	switch matType {
	case gocv.MatTypeCV8UC1:
		return 1.0 / 255, nil
	case gocv.MatTypeCV16UC1:
		return 1.0 / 65535, nil
	case gocv.MatTypeCV32FC1, gocv.MatTypeCV64FC1:
		return 1, nil
	default:
		return 0, fmt.Errorf("unsupported MatType %d for operation: %s", int(matType), operation)
	}
}
