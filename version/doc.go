// Package version exposes the analyticskit build version, set at link time:
//
//	go build -ldflags "-X github.com/kbukum/analyticskit/version.Version=v1.2.0"
package version
