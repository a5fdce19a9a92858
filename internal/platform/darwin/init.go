//go:build darwin && cgo

package darwin

import "github.com/dgannon/appdriver/internal/platform"

func init() {
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		return &platform.Provider{
			Processes:     NewProcessManager(),
			Windows:       NewWindowManager(),
			Inputter:      NewInputter(),
			Screenshotter: NewScreenshotter(),
		}, nil
	}
	platform.RequestPermissionsFunc = RequestPermissions
}
