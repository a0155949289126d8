// Package adb shells out to the adb binary for device access: push,
// tunnels, and remote process control.
package adb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
)

type Client struct {
	serial string // device serial, empty for the default device

	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient creates a client bound to one device. Cancelling via Stop kills
// every adb process started through this client, including a running
// remote server process.
func NewClient(serial string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{serial: serial, ctx: ctx, cancel: cancel}
}

func (c *Client) Serial() string { return c.serial }

// Stop kills all commands bound to this client's context.
func (c *Client) Stop() {
	c.cancel()
}

func (c *Client) args(args ...string) []string {
	if c.serial == "" {
		return args
	}
	return append([]string{"-s", c.serial}, args...)
}

func (c *Client) command(ctx context.Context, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, binary(), c.args(args...)...)
}

func (c *Client) run(ctx context.Context, args ...string) error {
	var stderr bytes.Buffer
	cmd := c.command(ctx, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("adb %v: %w: %s", args, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Shell runs a command on the device and blocks until it exits.
func (c *Client) Shell(ctx context.Context, cmd string) error {
	return c.run(ctx, "shell", cmd)
}

// ShellOutput runs a command on the device and captures combined output.
func (c *Client) ShellOutput(ctx context.Context, cmd string) (string, error) {
	out, err := c.command(ctx, "shell", cmd).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("adb shell %q: %w", cmd, err)
	}
	return string(out), nil
}

// ShellStart launches a command on the device without waiting for it. The
// returned channel yields the eventual exit error. The process is bound to
// the client's context, so Stop kills it.
func (c *Client) ShellStart(cmd string) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		err := c.Shell(c.ctx, cmd)
		if err != nil && c.ctx.Err() == nil {
			log.Printf("adb: remote command exited: %v", err)
		}
		done <- err
	}()
	return done
}

// Push streams data to a file on the device, reporting a monotonically
// increasing byte count against len(data) after every chunk. Written via
// `adb shell cat` so the byte counter is real, not inferred.
func (c *Client) Push(ctx context.Context, remotePath string, data []byte, onProgress func(written, total uint64)) error {
	total := uint64(len(data))
	cmd := c.command(ctx, "shell", fmt.Sprintf("cat > %s", remotePath))
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("adb push %s: %w", remotePath, err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("adb push %s: %w", remotePath, err)
	}

	const chunkSize = 64 * 1024
	var written uint64
	writeErr := func() error {
		defer stdin.Close()
		for off := 0; off < len(data); off += chunkSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			end := off + chunkSize
			if end > len(data) {
				end = len(data)
			}
			n, err := stdin.Write(data[off:end])
			written += uint64(n)
			if onProgress != nil {
				onProgress(written, total)
			}
			if err != nil {
				return err
			}
		}
		return nil
	}()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("adb push %s: %w: %s", remotePath, err, strings.TrimSpace(stderr.String()))
	}
	if writeErr != nil && writeErr != io.ErrClosedPipe {
		return fmt.Errorf("adb push %s: %w", remotePath, writeErr)
	}
	return nil
}

// RemoveFile best-effort deletes a file on the device.
func (c *Client) RemoveFile(ctx context.Context, remotePath string) {
	if err := c.Shell(ctx, "rm -f "+remotePath); err != nil {
		log.Printf("adb: remove %s: %v", remotePath, err)
	}
}

func (c *Client) Forward(ctx context.Context, local, remote string) error {
	return c.run(ctx, "forward", local, remote)
}

func (c *Client) ForwardRemove(ctx context.Context, local string) error {
	return c.run(ctx, "forward", "--remove", local)
}

func (c *Client) Reverse(ctx context.Context, remote, local string) error {
	return c.run(ctx, "reverse", remote, local)
}

func (c *Client) ReverseRemove(ctx context.Context, remote string) error {
	return c.run(ctx, "reverse", "--remove", remote)
}
