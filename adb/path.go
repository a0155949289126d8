package adb

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

var (
	binOnce sync.Once
	binPath string
)

// binary resolves the adb executable once per process. Resolution order:
// the MIRRORCTL_ADB environment variable, the system PATH, a copy next to
// the working directory, and finally a download of Google's platform-tools.
// Falls back to the bare name "adb" so the exec error stays readable.
func binary() string {
	binOnce.Do(func() {
		path, err := resolveBinary()
		if err != nil {
			log.Printf("adb: no usable binary found (%v), relying on PATH at exec time", err)
			binPath = "adb"
			return
		}
		binPath = path
	})
	return binPath
}

func resolveBinary() (string, error) {
	if env := os.Getenv("MIRRORCTL_ADB"); env != "" {
		return env, nil
	}
	if path, err := exec.LookPath("adb"); err == nil {
		return path, nil
	}

	name := "adb"
	if runtime.GOOS == "windows" {
		name = "adb.exe"
	}
	local, err := filepath.Abs(name)
	if err == nil {
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
	}

	log.Println("adb: binary not found, downloading platform-tools")
	if err := downloadPlatformTools(); err != nil {
		return "", err
	}
	return local, nil
}

func downloadPlatformTools() error {
	var url string
	switch runtime.GOOS {
	case "windows":
		url = "https://dl.google.com/android/repository/platform-tools-latest-windows.zip"
	case "linux":
		url = "https://dl.google.com/android/repository/platform-tools-latest-linux.zip"
	case "darwin":
		url = "https://dl.google.com/android/repository/platform-tools-latest-darwin.zip"
	default:
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}

	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download platform-tools: %s", resp.Status)
	}

	tmp, err := os.CreateTemp("", "platform-tools-*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	tmp.Close()

	return extractADB(tmp.Name())
}

// extractADB pulls adb (and its DLLs on windows) out of a platform-tools
// zip into the working directory.
func extractADB(src string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, "platform-tools/") {
			continue
		}
		base := filepath.Base(f.Name)
		wanted := base == "adb" || base == "adb.exe" ||
			(runtime.GOOS == "windows" && strings.HasSuffix(base, ".dll"))
		if !wanted {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(base, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		out.Close()
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
