package warranty

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/rs/zerolog/log"

	"github.com/christmasair/plate-scanner/internal/equipment"
)

const (
	// DefaultNavTimeout bounds one full lookup attempt against a site.
	DefaultNavTimeout = 45 * time.Second

	// findDeadline bounds the polling for an expected page element before
	// we conclude the site layout changed.
	findDeadline = 8 * time.Second
	findPoll     = 500 * time.Millisecond

	settleAfterLoad = 2 * time.Second
)

// Opts configures a Driver. Zero values get defaults.
type Opts struct {
	// MinDelay is the per-host inter-request floor (default 7s).
	MinDelay time.Duration
	// NavTimeout bounds one lookup attempt (default 45s).
	NavTimeout time.Duration
	// Headful runs a visible browser window, useful when debugging a
	// form_changed failure against a live site.
	Headful bool
}

// Driver runs the shared lookup state machine against any Site:
// start → navigate → form_filled → submitted → result_parsed, exiting to a
// terminal failure status at whichever step breaks. One Driver is meant to
// be shared process-wide so the rate limiter covers all lookups.
type Driver struct {
	limiter    *Limiter
	navTimeout time.Duration
	headful    bool

	// run and eval execute browser actions and page JS. Tests stub them to
	// script a page without a live browser.
	run  func(ctx context.Context, actions ...chromedp.Action) error
	eval func(ctx context.Context, js string, out *string) error
}

// NewDriver creates a driver with its own per-host rate limiter.
func NewDriver(opts Opts) *Driver {
	navTimeout := opts.NavTimeout
	if navTimeout <= 0 {
		navTimeout = DefaultNavTimeout
	}
	return &Driver{
		limiter:    NewLimiter(opts.MinDelay),
		navTimeout: navTimeout,
		headful:    opts.Headful,
		run:        chromedp.Run,
		eval: func(ctx context.Context, js string, out *string) error {
			return chromedp.Run(ctx, chromedp.Evaluate(js, out))
		},
	}
}

// MinDelay reports the per-host floor the driver's rate limiter enforces.
func (d *Driver) MinDelay() time.Duration {
	return d.limiter.MinDelay()
}

// Lookup drives one warranty lookup against the site. Failures come back as
// a status on the result, never as a panic or error past this boundary; the
// caller decides whether to retry, and any retry goes through the rate
// limiter again.
func (d *Driver) Lookup(ctx context.Context, site Site, serial, model string) equipment.Warranty {
	if serial == "" {
		return equipment.Warranty{
			Status: equipment.StatusInsufficientData,
			Err:    "serial number is empty",
		}
	}

	start := time.Now()
	if err := d.limiter.Wait(ctx, site.Host); err != nil {
		return d.fail(site, serial, start, equipment.StatusTimeout, fmt.Errorf("rate limit wait: %w", err))
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !d.headful),
		chromedp.WindowSize(1400, 900),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, d.navTimeout)
	defer cancelRun()

	// navigate
	if err := d.run(runCtx,
		chromedp.Navigate(site.URL),
		chromedp.Sleep(settleAfterLoad),
	); err != nil {
		return d.fail(site, serial, start, classify(err, equipment.StatusSiteUnreachable), err)
	}

	d.dismissOverlays(runCtx, site)

	// form_filled
	serialSel, err := d.findVisible(runCtx, site.SerialSelectors)
	if err != nil {
		return d.fail(site, serial, start, classify(err, equipment.StatusFormChanged), fmt.Errorf("serial input: %w", err))
	}
	if err := d.run(runCtx,
		chromedp.Clear(serialSel, chromedp.ByQuery),
		chromedp.SendKeys(serialSel, serial, chromedp.ByQuery),
	); err != nil {
		return d.fail(site, serial, start, classify(err, equipment.StatusFormChanged), fmt.Errorf("fill serial: %w", err))
	}

	d.fillModel(runCtx, site, model)

	for _, sel := range site.PreSubmitSelectors {
		if clicked, _ := d.clickFirst(runCtx, []string{sel}, nil); clicked != "" {
			break
		}
	}

	// submitted
	clicked, err := d.clickFirst(runCtx, site.SubmitSelectors, site.SubmitTexts)
	if err != nil {
		return d.fail(site, serial, start, classify(err, equipment.StatusFormChanged), fmt.Errorf("submit: %w", err))
	}
	if clicked == "" {
		// No submit button found; some forms submit on Enter.
		if err := d.run(runCtx, chromedp.SendKeys(serialSel, kb.Enter, chromedp.ByQuery)); err != nil {
			return d.fail(site, serial, start, classify(err, equipment.StatusFormChanged), fmt.Errorf("submit via enter: %w", err))
		}
	}

	// result_parsed
	if err := d.run(runCtx, chromedp.Sleep(site.ResultWait)); err != nil {
		return d.fail(site, serial, start, classify(err, equipment.StatusTimeout), fmt.Errorf("wait for result: %w", err))
	}
	var body string
	if err := d.eval(runCtx, `document.body ? document.body.innerText : ""`, &body); err != nil {
		return d.fail(site, serial, start, classify(err, equipment.StatusTimeout), fmt.Errorf("read result page: %w", err))
	}

	w := d.classifyResult(site, body)
	log.Info().
		Str("site", site.Name).
		Str("serial", serial).
		Str("status", string(w.Status)).
		Int("components", len(w.Components)).
		Dur("took", time.Since(start)).
		Msg("warranty lookup finished")
	return w
}

// classifyResult turns the result page text into a Warranty.
func (d *Driver) classifyResult(site Site, body string) equipment.Warranty {
	if containsAny(body, site.ThrottleMarkers) {
		return equipment.Warranty{
			Status:  equipment.StatusRateLimited,
			RawText: snapshot(body),
			Err:     "site blocked the request",
		}
	}

	parsed := site.Parse(body)
	if parsed.Empty() {
		if containsAny(body, site.NotFoundMarkers) {
			return equipment.Warranty{
				Status:  equipment.StatusSerialNotFound,
				RawText: snapshot(body),
				Err:     "site has no record for this serial",
			}
		}
		return equipment.Warranty{
			Status:  equipment.StatusFormChanged,
			RawText: snapshot(body),
			Err:     "result page did not contain the expected warranty structure",
		}
	}

	return equipment.Warranty{
		Status:           equipment.StatusFound,
		InstallDate:      parsed.InstallDate,
		RegistrationType: parsed.RegistrationType,
		Components:       parsed.Components,
		RawText:          snapshot(body),
	}
}

// fillModel fills the optional model input. Model is advisory, so the input
// is probed non-blockingly first: a form without the field (or one where
// the field moved) must not cost a node-wait against the navigation
// deadline.
func (d *Driver) fillModel(ctx context.Context, site Site, model string) {
	if site.ModelSelector == "" || model == "" {
		return
	}
	found, err := d.visibleNow(ctx, []string{site.ModelSelector})
	if err != nil || found == "" {
		return
	}
	_ = d.run(ctx, chromedp.SendKeys(found, model, chromedp.ByQuery))
}

// dismissOverlays clicks away interstitial modals and cookie banners.
// Best effort: a missing overlay is the happy path.
func (d *Driver) dismissOverlays(ctx context.Context, site Site) {
	if len(site.ModalTexts) > 0 {
		if clicked, _ := d.clickFirst(ctx, []string{".modal button"}, site.ModalTexts); clicked != "" {
			log.Debug().Str("site", site.Name).Str("via", clicked).Msg("dismissed modal")
			_ = d.run(ctx, chromedp.Sleep(time.Second))
		}
	}
	if site.CookieSelector != "" {
		if clicked, _ := d.clickFirst(ctx, []string{site.CookieSelector}, nil); clicked != "" {
			log.Debug().Str("site", site.Name).Msg("dismissed cookie banner")
		}
	}
}

func (d *Driver) fail(site Site, serial string, start time.Time, status equipment.LookupStatus, err error) equipment.Warranty {
	log.Warn().
		Str("site", site.Name).
		Str("serial", serial).
		Str("status", string(status)).
		Dur("took", time.Since(start)).
		Err(err).
		Msg("warranty lookup failed")
	return equipment.Warranty{Status: status, Err: err.Error()}
}

// classify maps a driver error to a lookup status: deadline/cancellation is
// a timeout, everything else takes the step's default status.
func classify(err error, fallback equipment.LookupStatus) equipment.LookupStatus {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return equipment.StatusTimeout
	}
	return fallback
}

// visibleNow checks once, without waiting, which of the selectors currently
// matches a visible element. Returns "" when none does.
func (d *Driver) visibleNow(ctx context.Context, selectors []string) (string, error) {
	sels, err := json.Marshal(selectors)
	if err != nil {
		return "", err
	}
	js := fmt.Sprintf(`(function(sels){
		for (const s of sels) {
			const el = document.querySelector(s);
			if (el && el.offsetParent !== null) return s;
		}
		return "";
	})(%s)`, sels)

	var found string
	if err := d.eval(ctx, js, &found); err != nil {
		return "", err
	}
	return found, nil
}

// findVisible polls for the first selector with a visible match and returns
// it. Times out when the page never produces one, which the caller
// classifies as form_changed (or timeout when the overall deadline hit
// first).
func (d *Driver) findVisible(ctx context.Context, selectors []string) (string, error) {
	deadline := time.Now().Add(findDeadline)
	for {
		found, err := d.visibleNow(ctx, selectors)
		if err != nil {
			return "", err
		}
		if found != "" {
			return found, nil
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("none of %v became visible within %s", selectors, findDeadline)
		}
		if err := d.run(ctx, chromedp.Sleep(findPoll)); err != nil {
			return "", err
		}
	}
}

// clickFirst clicks the first match by CSS selector, then by button/link
// text (case-insensitive substring). Returns the selector or text that
// matched, or "" when nothing did.
func (d *Driver) clickFirst(ctx context.Context, selectors, texts []string) (string, error) {
	sels, err := json.Marshal(selectors)
	if err != nil {
		return "", err
	}
	txts, err := json.Marshal(texts)
	if err != nil {
		return "", err
	}
	js := fmt.Sprintf(`(function(sels, texts){
		for (const s of sels) {
			const el = document.querySelector(s);
			if (el && el.offsetParent !== null) { el.click(); return s; }
		}
		if (texts && texts.length) {
			const lower = texts.map(t => t.toLowerCase());
			for (const b of document.querySelectorAll('button, a, input[type=submit]')) {
				if (b.offsetParent === null) continue;
				const label = (b.textContent || b.value || '').trim().toLowerCase();
				for (const t of lower) {
					if (label.includes(t)) { b.click(); return t; }
				}
			}
		}
		return "";
	})(%s, %s)`, sels, txts)

	var clicked string
	if err := d.eval(ctx, js, &clicked); err != nil {
		return "", err
	}
	return clicked, nil
}
