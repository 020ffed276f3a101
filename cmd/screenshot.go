package cmd

import (
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/output"
	"github.com/deskdriver/deskdriver/internal/platform"
)

// ScreenshotResult is the output of a screenshot command when writing
// files.
type ScreenshotResult struct {
	OK     bool     `yaml:"ok"     json:"ok"`
	Action string   `yaml:"action" json:"action"`
	Files  []string `yaml:"files"  json:"files"`
}

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Capture a monitor to a PNG file",
	Long: `Capture the primary monitor, the monitor given by --monitor (id or
name), every monitor with --all, or the on-screen extent of a single
element with --of and a selector. Output is a PNG file named after the
monitor unless --output names one, or base64 on stdout with --base64.
--scale downsamples the image, which keeps captures of hidpi displays
small enough for model context windows.`,
	RunE: runScreenshot,
}

func init() {
	rootCmd.AddCommand(screenshotCmd)
	screenshotCmd.Flags().String("monitor", "", "Monitor id or name (default: primary)")
	screenshotCmd.Flags().Bool("all", false, "Capture every monitor")
	screenshotCmd.Flags().String("of", "", "Selector of an element to capture instead of a monitor")
	screenshotCmd.Flags().String("output", "", "Output file for a single capture")
	screenshotCmd.Flags().Float64("scale", 0, "Downscale factor between 0 and 1")
	screenshotCmd.Flags().Bool("base64", false, "Write base64 PNG to stdout instead of a file")
	addFindFlags(screenshotCmd)
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}

	scale, _ := cmd.Flags().GetFloat64("scale")

	if of, _ := cmd.Flags().GetString("of"); of != "" {
		el, err := desk.FindElement(cmd.Context(), of, findOptions(cmd))
		if err != nil {
			return err
		}
		shot, err := el.Capture(cmd.Context())
		if err != nil {
			return err
		}
		return emitShot(cmd, shot, scale)
	}

	if all, _ := cmd.Flags().GetBool("all"); all {
		shots, err := desk.CaptureAllMonitors(cmd.Context())
		if err != nil {
			return err
		}
		files := make([]string, 0, len(shots))
		for _, shot := range shots {
			path, err := writeShot(shot, scale, "")
			if err != nil {
				return err
			}
			files = append(files, path)
		}
		return output.Print(ScreenshotResult{OK: true, Action: "screenshot", Files: files})
	}

	monitor, _ := cmd.Flags().GetString("monitor")
	var m platform.Monitor
	if monitor == "" {
		m, err = desk.PrimaryMonitor(cmd.Context())
	} else {
		m, err = desk.MonitorByID(cmd.Context(), monitor)
		if err != nil {
			m, err = desk.MonitorByName(cmd.Context(), monitor)
		}
	}
	if err != nil {
		return err
	}

	shot, err := desk.CaptureMonitor(cmd.Context(), m)
	if err != nil {
		return err
	}
	return emitShot(cmd, shot, scale)
}

// emitShot writes one capture as base64 on stdout or a PNG file, per the
// output flags.
func emitShot(cmd *cobra.Command, shot *platform.Screenshot, scale float64) error {
	if b64, _ := cmd.Flags().GetBool("base64"); b64 {
		data, err := encodeShot(shot, scale)
		if err != nil {
			return err
		}
		enc := base64.NewEncoder(base64.StdEncoding, os.Stdout)
		if _, err := enc.Write(data); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
		fmt.Println()
		return nil
	}

	outPath, _ := cmd.Flags().GetString("output")
	path, err := writeShot(shot, scale, outPath)
	if err != nil {
		return err
	}
	return output.Print(ScreenshotResult{OK: true, Action: "screenshot", Files: []string{path}})
}

func encodeShot(shot *platform.Screenshot, scale float64) ([]byte, error) {
	if scale > 0 && scale < 1 {
		shot = shot.Scale(scale)
	}
	return shot.EncodePNG()
}

// unsafeFilename strips characters that Windows display ids carry, such
// as backslashes in \\.\DISPLAY1.
var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func writeShot(shot *platform.Screenshot, scale float64, path string) (string, error) {
	data, err := encodeShot(shot, scale)
	if err != nil {
		return "", err
	}
	if path == "" {
		id := unsafeFilename.ReplaceAllString(shot.Monitor.ID, "-")
		path = fmt.Sprintf("deskdriver-%s-%d.png", id, time.Now().Unix())
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
