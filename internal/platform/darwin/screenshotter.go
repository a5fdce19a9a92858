//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ImageIO -framework CoreServices
#include <CoreGraphics/CoreGraphics.h>
#include <ImageIO/ImageIO.h>
#include <CoreServices/CoreServices.h>
#include <stdlib.h>
#include <string.h>

typedef struct {
    unsigned char *data;
    int length;
} CaptureResult;

static int encode_png(CGImageRef image, CaptureResult *out) {
    CFMutableDataRef data = CFDataCreateMutable(kCFAllocatorDefault, 0);
    if (!data) return -1;

    CGImageDestinationRef dest =
        CGImageDestinationCreateWithData(data, kUTTypePNG, 1, NULL);
    if (!dest) {
        CFRelease(data);
        return -1;
    }
    CGImageDestinationAddImage(dest, image, NULL);
    bool ok = CGImageDestinationFinalize(dest);
    CFRelease(dest);
    if (!ok) {
        CFRelease(data);
        return -1;
    }

    CFIndex length = CFDataGetLength(data);
    out->data = malloc(length);
    memcpy(out->data, CFDataGetBytePtr(data), length);
    out->length = (int)length;
    CFRelease(data);
    return 0;
}

static int cg_capture(int useRect, float x, float y, float w, float h, CaptureResult *out) {
    CGImageRef image;
    if (useRect) {
        image = CGDisplayCreateImageForRect(CGMainDisplayID(), CGRectMake(x, y, w, h));
    } else {
        image = CGDisplayCreateImage(CGMainDisplayID());
    }
    if (!image) return -1;

    int rc = encode_png(image, out);
    CGImageRelease(image);
    return rc;
}

static void cg_free_capture(CaptureResult *out) {
    if (out->data) {
        free(out->data);
        out->data = NULL;
        out->length = 0;
    }
}
*/
import "C"
import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"unsafe"

	"github.com/dgannon/appdriver/internal/platform"
)

// DarwinScreenshotter implements platform.Screenshotter for macOS.
// Frames are captured as PNG via ImageIO and decoded into image.Image for
// the visual-sensing pipeline.
type DarwinScreenshotter struct{}

// NewScreenshotter creates a new macOS screenshotter.
func NewScreenshotter() *DarwinScreenshotter {
	return &DarwinScreenshotter{}
}

func (s *DarwinScreenshotter) CaptureScreen() (image.Image, error) {
	return s.capture(false, platform.Bounds{})
}

func (s *DarwinScreenshotter) CaptureRegion(b platform.Bounds) (image.Image, error) {
	if b.Empty() {
		return nil, fmt.Errorf("capture region is empty")
	}
	return s.capture(true, b)
}

func (s *DarwinScreenshotter) capture(useRect bool, b platform.Bounds) (image.Image, error) {
	if err := CheckScreenRecordingPermission(); err != nil {
		return nil, err
	}

	var result C.CaptureResult
	rect := C.int(0)
	if useRect {
		rect = 1
	}
	if C.cg_capture(rect, C.float(b.X), C.float(b.Y), C.float(b.Width), C.float(b.Height), &result) != 0 {
		return nil, fmt.Errorf("screen capture failed (check Screen Recording permission in System Settings > Privacy & Security)")
	}
	defer C.cg_free_capture(&result)

	raw := C.GoBytes(unsafe.Pointer(result.data), result.length)
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode captured frame: %w", err)
	}
	return img, nil
}
