// Package main hosts the scoreshot bot entrypoint.
//
// Architecture overview:
//   - Bot loop: internal/bot consumes Telegram long-poll updates sequentially. Plates are normalized and validated
//     via internal/plate, the score link is built with query escaping, and a reply with an inline keyboard
//     (screenshot callback + open-link button) is sent. Per-chat state lives in internal/session for the process
//     lifetime.
//   - Capture pipeline: the screenshot callback launches a job goroutine that drives a disposable headless Chrome
//     via internal/capture/headless: navigate on DOMContentLoaded under a tolerated deadline, settle, dismiss
//     cookie-consent prompts best-effort, poll the page until the score value stabilizes, scroll the dominant
//     scrollable region until its height stops growing, return to the top, and capture the full page. The image is
//     written under internal/artifact's temp directory, delivered as a photo with the plate and URL as caption,
//     and removed after the send.
//   - Ops server: internal/health exposes /healthz, /readyz (target reachability through the colly-based
//     internal/probe behind a short TTL cache), and /metrics on a chi router with request-ID, logging, recovery,
//     and timeout middleware.
//   - Configuration & plumbing: Viper populates config from env/files (godotenv loads a local .env first); zap
//     provides structured logging; Prometheus collectors in internal/metrics cover updates, plates, captures,
//     probe checks, and ops HTTP traffic.
//
// Operational notes:
//   - Concurrency model: message handling is sequential in the update loop, so per-chat command order holds;
//     capture jobs run one goroutine each with no cross-job limit. Shutdown stops the update stream, waits for
//     in-flight jobs, then drains the HTTP server.
//   - Failure handling: captures are never retried. A failed job edits the in-progress message to a notice that
//     still carries the score link; Telegram send failures are logged and dropped without stopping the loop.
//   - Observability: zap logs carry chat IDs, plates, and pipeline stages at key transitions; Prometheus
//     counters/histograms track update kinds, validation outcomes, capture durations, and probe results.
//   - Deployment: the HTTP server listens on the configured port (overridable via PORT); TG_BOT_TOKEN must be set
//     or startup fails. The process reacts to SIGINT/SIGTERM with a graceful drain.
//
// Quick checklist:
//   - Configure env vars: TG_BOT_TOKEN (required), PORT or SCORESHOT_SERVER_PORT, SCORESHOT_TARGET_BASE_URL,
//     SCORESHOT_PLATE_MIN_LENGTH/MAX_LENGTH, capture knobs (SCORESHOT_CAPTURE_*), SCORESHOT_ARTIFACTS_DIR, and
//     probe timings (SCORESHOT_PROBE_*) when the defaults do not fit.
//   - Run locally: go run ./cmd/scoreshot -config config.yaml (or rely solely on env overrides; a .env file is
//     picked up when present).
//   - Containers: a Chrome or Chromium binary must be on PATH for the capture engine; the image stays stateless,
//     listens on PORT, and shuts down cleanly on SIGTERM with in-flight screenshots allowed to finish.
package main
