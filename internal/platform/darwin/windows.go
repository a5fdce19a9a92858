//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework ApplicationServices -framework CoreGraphics -framework CoreFoundation -framework Foundation
#import <AppKit/AppKit.h>
#include <ApplicationServices/ApplicationServices.h>
#include <CoreGraphics/CoreGraphics.h>
#include <stdlib.h>
#include <string.h>

typedef struct {
    int windowID;
    pid_t pid;
    int x, y, width, height;
    int layer;
    char *appName;
    char *title;
} CGWindowInfo;

// Private but long-stable: maps an AXUIElement window to its CGWindowID.
extern AXError _AXUIElementGetWindow(AXUIElementRef element, CGWindowID *out);

static char *copy_cfstring(CFStringRef s) {
    if (!s) return strdup("");
    CFIndex length = CFStringGetLength(s);
    CFIndex max = CFStringGetMaximumSizeForEncoding(length, kCFStringEncodingUTF8) + 1;
    char *buf = malloc(max);
    if (!CFStringGetCString(s, buf, max, kCFStringEncodingUTF8)) {
        buf[0] = '\0';
    }
    return buf;
}

static int cg_list_windows(CGWindowInfo **outWindows, int *outCount) {
    CFArrayRef list = CGWindowListCopyWindowInfo(
        kCGWindowListOptionOnScreenOnly | kCGWindowListExcludeDesktopElements,
        kCGNullWindowID);
    if (!list) return -1;

    CFIndex n = CFArrayGetCount(list);
    CGWindowInfo *windows = calloc(n > 0 ? n : 1, sizeof(CGWindowInfo));
    int count = 0;

    for (CFIndex i = 0; i < n; i++) {
        CFDictionaryRef info = CFArrayGetValueAtIndex(list, i);

        CGWindowInfo *w = &windows[count];

        CFNumberRef num;
        num = CFDictionaryGetValue(info, kCGWindowNumber);
        if (num) CFNumberGetValue(num, kCFNumberIntType, &w->windowID);
        num = CFDictionaryGetValue(info, kCGWindowOwnerPID);
        if (num) CFNumberGetValue(num, kCFNumberIntType, &w->pid);
        num = CFDictionaryGetValue(info, kCGWindowLayer);
        if (num) CFNumberGetValue(num, kCFNumberIntType, &w->layer);

        CFDictionaryRef boundsDict = CFDictionaryGetValue(info, kCGWindowBounds);
        if (boundsDict) {
            CGRect rect;
            CGRectMakeWithDictionaryRepresentation(boundsDict, &rect);
            w->x = (int)rect.origin.x;
            w->y = (int)rect.origin.y;
            w->width = (int)rect.size.width;
            w->height = (int)rect.size.height;
        }

        w->appName = copy_cfstring(CFDictionaryGetValue(info, kCGWindowOwnerName));
        w->title = copy_cfstring(CFDictionaryGetValue(info, kCGWindowName));
        count++;
    }

    CFRelease(list);
    *outWindows = windows;
    *outCount = count;
    return 0;
}

static void cg_free_windows(CGWindowInfo *windows, int count) {
    if (!windows) return;
    for (int i = 0; i < count; i++) {
        free(windows[i].appName);
        free(windows[i].title);
    }
    free(windows);
}

static pid_t cg_get_frontmost_pid() {
    NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
    return app ? app.processIdentifier : 0;
}

static int ns_activate_app(pid_t pid) {
    NSRunningApplication *app =
        [NSRunningApplication runningApplicationWithProcessIdentifier:pid];
    if (!app) return -1;
    return [app activateWithOptions:NSApplicationActivateIgnoringOtherApps] ? 0 : -1;
}

// ax_copy_window returns the AXUIElement for the given CGWindowID within the
// owning app, or NULL. Caller releases.
static AXUIElementRef ax_copy_window(pid_t pid, int windowID) {
    AXUIElementRef appEl = AXUIElementCreateApplication(pid);
    if (!appEl) return NULL;

    CFArrayRef axWindows = NULL;
    AXError err = AXUIElementCopyAttributeValue(appEl, kAXWindowsAttribute,
                                                (CFTypeRef *)&axWindows);
    CFRelease(appEl);
    if (err != kAXErrorSuccess || !axWindows) return NULL;

    AXUIElementRef result = NULL;
    CFIndex n = CFArrayGetCount(axWindows);
    for (CFIndex i = 0; i < n; i++) {
        AXUIElementRef win = (AXUIElementRef)CFArrayGetValueAtIndex(axWindows, i);
        CGWindowID wid = 0;
        if (_AXUIElementGetWindow(win, &wid) == kAXErrorSuccess && (int)wid == windowID) {
            result = win;
            CFRetain(result);
            break;
        }
    }
    CFRelease(axWindows);
    return result;
}

static int ax_raise_window(pid_t pid, int windowID) {
    AXUIElementRef win = ax_copy_window(pid, windowID);
    if (!win) return -1;
    AXError err = AXUIElementPerformAction(win, kAXRaiseAction);
    CFRelease(win);
    if (err != kAXErrorSuccess) return -1;
    return ns_activate_app(pid);
}

static int ax_close_window(pid_t pid, int windowID) {
    AXUIElementRef win = ax_copy_window(pid, windowID);
    if (!win) return -1;

    AXUIElementRef closeButton = NULL;
    AXError err = AXUIElementCopyAttributeValue(win, kAXCloseButtonAttribute,
                                                (CFTypeRef *)&closeButton);
    CFRelease(win);
    if (err != kAXErrorSuccess || !closeButton) return -1;

    err = AXUIElementPerformAction(closeButton, kAXPressAction);
    CFRelease(closeButton);
    return err == kAXErrorSuccess ? 0 : -1;
}

static int ax_get_placement(pid_t pid, int windowID,
                            int *x, int *y, int *w, int *h, int *minimized) {
    AXUIElementRef win = ax_copy_window(pid, windowID);
    if (!win) return -1;

    AXValueRef value = NULL;
    CGPoint pos = CGPointZero;
    CGSize size = CGSizeZero;

    if (AXUIElementCopyAttributeValue(win, kAXPositionAttribute,
                                      (CFTypeRef *)&value) == kAXErrorSuccess && value) {
        AXValueGetValue(value, kAXValueTypeCGPoint, &pos);
        CFRelease(value);
        value = NULL;
    }
    if (AXUIElementCopyAttributeValue(win, kAXSizeAttribute,
                                      (CFTypeRef *)&value) == kAXErrorSuccess && value) {
        AXValueGetValue(value, kAXValueTypeCGSize, &size);
        CFRelease(value);
        value = NULL;
    }

    CFBooleanRef minRef = NULL;
    *minimized = 0;
    if (AXUIElementCopyAttributeValue(win, kAXMinimizedAttribute,
                                      (CFTypeRef *)&minRef) == kAXErrorSuccess && minRef) {
        *minimized = CFBooleanGetValue(minRef) ? 1 : 0;
        CFRelease(minRef);
    }

    CFRelease(win);
    *x = (int)pos.x;
    *y = (int)pos.y;
    *w = (int)size.width;
    *h = (int)size.height;
    return 0;
}

static int ax_set_placement(pid_t pid, int windowID,
                            int x, int y, int w, int h, int minimized) {
    AXUIElementRef win = ax_copy_window(pid, windowID);
    if (!win) return -1;

    CGPoint pos = CGPointMake(x, y);
    CGSize size = CGSizeMake(w, h);

    AXValueRef posVal = AXValueCreate(kAXValueTypeCGPoint, &pos);
    AXValueRef sizeVal = AXValueCreate(kAXValueTypeCGSize, &size);
    AXError err1 = AXUIElementSetAttributeValue(win, kAXPositionAttribute, posVal);
    AXError err2 = AXUIElementSetAttributeValue(win, kAXSizeAttribute, sizeVal);
    CFRelease(posVal);
    CFRelease(sizeVal);

    AXUIElementSetAttributeValue(win, kAXMinimizedAttribute,
                                 minimized ? kCFBooleanTrue : kCFBooleanFalse);

    CFRelease(win);
    return (err1 == kAXErrorSuccess && err2 == kAXErrorSuccess) ? 0 : -1;
}

static int ax_maximize(pid_t pid, int windowID) {
    CGRect screen = CGDisplayBounds(CGMainDisplayID());
    return ax_set_placement(pid, windowID,
                            (int)screen.origin.x, (int)screen.origin.y,
                            (int)screen.size.width, (int)screen.size.height, 0);
}
*/
import "C"
import (
	"fmt"
	"unsafe"

	"github.com/dgannon/appdriver/internal/platform"
)

// DarwinWindowManager implements platform.WindowManager for macOS using
// CGWindowList for enumeration and the Accessibility API for manipulation.
type DarwinWindowManager struct{}

// NewWindowManager creates a new macOS window manager.
func NewWindowManager() *DarwinWindowManager {
	return &DarwinWindowManager{}
}

func (wm *DarwinWindowManager) ListWindows(pid int) ([]platform.WindowInfo, error) {
	var cWindows *C.CGWindowInfo
	var cCount C.int

	if C.cg_list_windows(&cWindows, &cCount) != 0 {
		return nil, fmt.Errorf("failed to enumerate windows")
	}
	defer C.cg_free_windows(cWindows, cCount)

	count := int(cCount)
	if count == 0 {
		return []platform.WindowInfo{}, nil
	}

	frontPid := int(C.cg_get_frontmost_pid())
	frontmostFocusAssigned := false

	cSlice := unsafe.Slice(cWindows, count)

	var windows []platform.WindowInfo
	for i := 0; i < count; i++ {
		cw := cSlice[i]

		// Layer 0 only: real application windows, not menu bar items or overlays.
		if int(cw.layer) != 0 {
			continue
		}
		wpid := int(cw.pid)
		if pid != 0 && wpid != pid {
			continue
		}

		focused := false
		if wpid == frontPid && !frontmostFocusAssigned {
			focused = true
			frontmostFocusAssigned = true
		}

		windows = append(windows, platform.WindowInfo{
			ID:    int(cw.windowID),
			PID:   wpid,
			App:   C.GoString(cw.appName),
			Title: C.GoString(cw.title),
			Bounds: platform.Bounds{
				X:      int(cw.x),
				Y:      int(cw.y),
				Width:  int(cw.width),
				Height: int(cw.height),
			},
			Focused: focused,
		})
	}
	return windows, nil
}

// ownerPID resolves the owning process of a window ID via enumeration.
func (wm *DarwinWindowManager) ownerPID(windowID int) (int, error) {
	windows, err := wm.ListWindows(0)
	if err != nil {
		return 0, err
	}
	for _, w := range windows {
		if w.ID == windowID {
			return w.PID, nil
		}
	}
	return 0, fmt.Errorf("no window found with ID %d", windowID)
}

func (wm *DarwinWindowManager) FocusWindow(windowID int) error {
	if err := CheckAccessibilityPermission(); err != nil {
		return err
	}
	pid, err := wm.ownerPID(windowID)
	if err != nil {
		return err
	}
	if C.ax_raise_window(C.pid_t(pid), C.int(windowID)) != 0 {
		return fmt.Errorf("failed to raise window %d for PID %d", windowID, pid)
	}
	return nil
}

func (wm *DarwinWindowManager) CloseWindow(windowID int) error {
	if err := CheckAccessibilityPermission(); err != nil {
		return err
	}
	pid, err := wm.ownerPID(windowID)
	if err != nil {
		return err
	}
	if C.ax_close_window(C.pid_t(pid), C.int(windowID)) != 0 {
		return fmt.Errorf("failed to close window %d for PID %d", windowID, pid)
	}
	return nil
}

func (wm *DarwinWindowManager) GetPlacement(windowID int) (platform.Placement, error) {
	if err := CheckAccessibilityPermission(); err != nil {
		return platform.Placement{}, err
	}
	pid, err := wm.ownerPID(windowID)
	if err != nil {
		return platform.Placement{}, err
	}

	var x, y, w, h, minimized C.int
	if C.ax_get_placement(C.pid_t(pid), C.int(windowID), &x, &y, &w, &h, &minimized) != 0 {
		return platform.Placement{}, fmt.Errorf("failed to read placement of window %d", windowID)
	}

	p := platform.Placement{
		Bounds: platform.Bounds{X: int(x), Y: int(y), Width: int(w), Height: int(h)},
	}
	if minimized != 0 {
		p.Mode = platform.WindowMinimized
	}
	return p, nil
}

func (wm *DarwinWindowManager) SetPlacement(windowID int, p platform.Placement) error {
	if err := CheckAccessibilityPermission(); err != nil {
		return err
	}
	pid, err := wm.ownerPID(windowID)
	if err != nil {
		return err
	}

	minimized := C.int(0)
	if p.Mode == platform.WindowMinimized {
		minimized = 1
	}
	if C.ax_set_placement(C.pid_t(pid), C.int(windowID),
		C.int(p.Bounds.X), C.int(p.Bounds.Y),
		C.int(p.Bounds.Width), C.int(p.Bounds.Height), minimized) != 0 {
		return fmt.Errorf("failed to restore placement of window %d", windowID)
	}
	return nil
}

func (wm *DarwinWindowManager) Maximize(windowID int) error {
	if err := CheckAccessibilityPermission(); err != nil {
		return err
	}
	pid, err := wm.ownerPID(windowID)
	if err != nil {
		return err
	}
	if C.ax_maximize(C.pid_t(pid), C.int(windowID)) != 0 {
		return fmt.Errorf("failed to maximize window %d", windowID)
	}
	return nil
}

func (wm *DarwinWindowManager) FrontmostWindow() (platform.WindowInfo, error) {
	frontPid := int(C.cg_get_frontmost_pid())
	if frontPid == 0 {
		return platform.WindowInfo{}, fmt.Errorf("failed to get frontmost application")
	}
	windows, err := wm.ListWindows(frontPid)
	if err != nil {
		return platform.WindowInfo{}, err
	}
	if len(windows) == 0 {
		return platform.WindowInfo{}, fmt.Errorf("frontmost application (PID %d) has no windows", frontPid)
	}
	return windows[0], nil
}
