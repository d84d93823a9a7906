package submission

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/browser"
)

// Opener hands a fallback link to the user.
type Opener interface {
	Open(ctx context.Context, link string) error
}

type OpenerFunc func(ctx context.Context, link string) error

func (f OpenerFunc) Open(ctx context.Context, link string) error { return f(ctx, link) }

// SystemOpener launches the platform URL handler (the mail client for
// mailto links, the browser for calendar links).
type SystemOpener struct {
	open func(url string) error
}

func NewSystemOpener() *SystemOpener {
	return &SystemOpener{open: browser.OpenURL}
}

func (o *SystemOpener) Open(ctx context.Context, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := o.open(link); err != nil {
		return fmt.Errorf("open link: %w", err)
	}
	return nil
}

// PrintOpener writes the link for the user to open by hand.
type PrintOpener struct {
	W io.Writer
}

func (o PrintOpener) Open(_ context.Context, link string) error {
	_, err := fmt.Fprintf(o.W, "Open this link to finish manually:\n%s\n", link)
	return err
}
