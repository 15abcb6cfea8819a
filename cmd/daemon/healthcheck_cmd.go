package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func runHealthcheckCLI(args []string) int {
	fs := flag.NewFlagSet("healthcheck", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		printHealthcheckUsage(fs.Output())
	}
	mode := fs.String("mode", "ready", "healthcheck mode: ready (default) or live")
	port := fs.Int("port", 8080, "HTTP port to check")
	requireMetrics := fs.Bool("require-metrics", false, "probe /metrics endpoint as well")
	timeout := fs.Duration("timeout", 5*time.Second, "check timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error parsing healthcheck flags: %v\n", err)
		return 2
	}

	client := http.Client{Timeout: *timeout}

	path := "/healthz"
	if *mode == "ready" {
		path = "/readyz"
	}

	url := fmt.Sprintf("http://localhost:%d%s", *port, path)
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Healthcheck failed (API network): %v\n", err)
		return 1
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Healthcheck failed (API status): %d %s\n", resp.StatusCode, resp.Status)
		return 1
	}

	if *requireMetrics {
		mURL := fmt.Sprintf("http://localhost:%d/metrics", *port)
		mResp, err := client.Get(mURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed (metrics network): %v\n", err)
			return 1
		}
		_ = mResp.Body.Close()

		if mResp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Healthcheck failed (metrics status): %d %s\n", mResp.StatusCode, mResp.Status)
			return 1
		}
	}

	fmt.Printf("Healthcheck successful (%s, metrics=%v)\n", *mode, *requireMetrics)
	return 0
}

func printHealthcheckUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  mmsearch healthcheck [--mode=ready|live] [--port=8080] [--require-metrics] [--timeout=5s]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Flags:")
	_, _ = fmt.Fprintln(w, "  --mode string          healthcheck mode: ready or live (default: ready)")
	_, _ = fmt.Fprintln(w, "  --port int             HTTP port to check (default: 8080)")
	_, _ = fmt.Fprintln(w, "  --require-metrics      probe Prometheus /metrics endpoint")
	_, _ = fmt.Fprintln(w, "  --timeout duration     check timeout (default: 5s)")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Examples:")
	_, _ = fmt.Fprintln(w, "  mmsearch healthcheck --mode=ready --port=8080 --require-metrics")
}
