// Package capture defines the screenshot engine contract: what a capture
// is, how it fails, and the knobs that steer the render-convergence
// pipeline. The chromedp implementation lives in capture/headless.
package capture

import "context"

// Engine produces one full-page screenshot of pageURL and writes it to
// dest. Implementations must not retry and must release every browser
// resource on all exit paths.
type Engine interface {
	Capture(ctx context.Context, pageURL, dest string) error
}
