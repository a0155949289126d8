package session

import (
	"context"

	"mirrorctl/adb"
	"mirrorctl/scrcpy"
)

// ADBTransport is the production Transport: encoder probes and protocol
// clients over adb tunnels. Each call gets its own adb client so that
// killing one session's processes never touches another's.
type ADBTransport struct{}

func (ADBTransport) GetEncoders(ctx context.Context, opts scrcpy.Options) ([]string, error) {
	client := adb.NewClient(opts.Serial)
	defer client.Stop()
	return scrcpy.ListEncoders(ctx, client, opts)
}

func (ADBTransport) NewClient(opts scrcpy.Options) scrcpy.Client {
	return scrcpy.New(opts, adb.NewClient(opts.Serial))
}

// ADBDeployer pushes the server binary through adb.
type ADBDeployer struct{}

func (ADBDeployer) Write(ctx context.Context, serial, path string, data []byte, onProgress ProgressFunc) error {
	client := adb.NewClient(serial)
	defer client.Stop()
	return client.Push(ctx, path, data, func(written, total uint64) {
		if onProgress != nil {
			onProgress(written, total)
		}
	})
}
