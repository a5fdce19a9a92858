// Package darwin provides macOS platform support using CoreGraphics and
// Accessibility APIs. Window and input functionality requires CGo
// (Objective-C frameworks); when CGo is disabled, the package compiles as a
// no-op stub and no provider is registered.
package darwin
