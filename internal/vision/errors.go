package vision

import "errors"

// ErrDetectorUnavailable is returned when the service was built without
// OpenCV support or the detector could not be initialized.
var ErrDetectorUnavailable = errors.New("damage detector is not available")

// ErrDecodeImage is returned for images the detector cannot read.
var ErrDecodeImage = errors.New("failed to decode image")
