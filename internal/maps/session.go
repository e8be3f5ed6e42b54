package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
)

// Session is the capability set the harvester needs from a browser: open a
// results view, enumerate rendered cards, activate one, and read attributes
// from the detail pane. The chromedp implementation below is the production
// driver; tests substitute a fake.
type Session interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	CardLabels(ctx context.Context) ([]string, error)
	OpenCard(ctx context.Context, label string) error
	FirstAttribute(ctx context.Context, selector, attr string) (string, bool, error)
	ScrollFeed(ctx context.Context) error
	Close()
}

// SessionFactory opens a fresh isolated session. The harvester acquires one
// per Search call and releases it on every exit path.
type SessionFactory func(ctx context.Context) (Session, error)

// BrowserOptions configure the chromedp-backed session.
type BrowserOptions struct {
	Headless       bool
	UserAgent      string
	ViewportWidth  int64
	ViewportHeight int64
}

type chromeSession struct {
	ctx     context.Context
	cancels []context.CancelFunc
}

// NewChromeSession launches an isolated headless-Chrome session with the
// configured viewport and agent string.
func NewChromeSession(parent context.Context, opts BrowserOptions) (Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(opts.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	s := &chromeSession{ctx: tabCtx, cancels: []context.CancelFunc{tabCancel, allocCancel}}

	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		if err := chromedp.Run(tabCtx, chromedp.EmulateViewport(opts.ViewportWidth, opts.ViewportHeight)); err != nil {
			s.Close()
			return nil, eris.Wrap(err, "maps: emulate viewport")
		}
	}
	return s, nil
}

// run executes actions on the session tab, honoring the caller's deadline.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx := s.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(runCtx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *chromeSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

const cardLabelsScript = `(function () {
  const cards = Array.from(document.querySelectorAll('div[role="feed"] div[role="article"]'));
  return cards.map(card => card.getAttribute('aria-label') || '');
})();`

func (s *chromeSession) CardLabels(ctx context.Context) ([]string, error) {
	var labels []string
	if err := s.run(ctx, chromedp.Evaluate(cardLabelsScript, &labels)); err != nil {
		return nil, err
	}
	return labels, nil
}

const openCardScript = `(function (label) {
  const cards = Array.from(document.querySelectorAll('div[role="feed"] div[role="article"]'));
  for (const card of cards) {
    if ((card.getAttribute('aria-label') || '') === label) {
      const link = card.querySelector('a');
      (link || card).click();
      return true;
    }
  }
  return false;
})(%s);`

func (s *chromeSession) OpenCard(ctx context.Context, label string) error {
	encoded, err := json.Marshal(label)
	if err != nil {
		return err
	}
	var clicked bool
	if err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf(openCardScript, encoded), &clicked)); err != nil {
		return err
	}
	if !clicked {
		return eris.Errorf("maps: card %q no longer rendered", label)
	}
	return nil
}

const firstAttributeScript = `(function (selector, attr) {
  const node = document.querySelector(selector);
  if (!node) { return ''; }
  if (attr === 'href' && node.href) { return node.href; }
  return node.getAttribute(attr) || '';
})(%s, %s);`

func (s *chromeSession) FirstAttribute(ctx context.Context, selector, attr string) (string, bool, error) {
	selJSON, err := json.Marshal(selector)
	if err != nil {
		return "", false, err
	}
	attrJSON, err := json.Marshal(attr)
	if err != nil {
		return "", false, err
	}
	var value string
	if err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf(firstAttributeScript, selJSON, attrJSON), &value)); err != nil {
		return "", false, err
	}
	return value, value != "", nil
}

const scrollFeedScript = `(function () {
  const feed = document.querySelector('div[role="feed"]');
  if (feed) { feed.scrollTop += 5000; }
})();`

func (s *chromeSession) ScrollFeed(ctx context.Context) error {
	return s.run(ctx, chromedp.Evaluate(scrollFeedScript, nil))
}

func (s *chromeSession) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}
