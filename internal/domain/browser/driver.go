package browser

import (
	"context"
	"fmt"
	"time"
)

// ErrElementNotFound is returned when an expected page element cannot be located
// within the lookup timeout.
var ErrElementNotFound = fmt.Errorf("element not found")

// Driver is the capability set the bot needs from a controlled browser session.
// Selectors are CSS selectors. Implementations are not safe for concurrent use;
// the bot drives a single session sequentially.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// WaitPresent blocks until selector matches an element attached to the DOM,
	// or returns ErrElementNotFound after timeout.
	WaitPresent(ctx context.Context, selector string, timeout time.Duration) error
	Clear(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	Click(ctx context.Context, selector string) error
	// SelectOption picks the position-th option (1-based) of a <select> element.
	SelectOption(ctx context.Context, selector string, position int) error
	PageSource(ctx context.Context) (string, error)
	Execute(ctx context.Context, script string) error
	Refresh(ctx context.Context) error
	Close() error
}
