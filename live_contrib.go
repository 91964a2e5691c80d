package reddit

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
)

// ThreadSettings are the editable settings of a live thread. Nil fields keep their current value.
type ThreadSettings struct {
	Title       *string
	Description *string
	Resources   *string
	NSFW        *bool

	// Other holds settings this package does not model, sent verbatim.
	Other map[string]string
}

func (s ThreadSettings) empty() bool {
	return s.Title == nil && s.Description == nil && s.Resources == nil && s.NSFW == nil && len(s.Other) == 0
}

// LiveThreadContribution exposes contributor-only actions on one thread.
type LiveThreadContribution struct {
	thread *LiveThread
}

// Add posts a new update to the thread.
func (c *LiveThreadContribution) Add(ctx context.Context, body string) error {
	if body == "" {
		return newValueError("body", "must not be empty")
	}
	_, err := postAction(ctx, c.thread.r, "live_add_update", url.Values{"body": {body}}, c.thread.ID)
	return err
}

// Close ends the thread. Closed threads accept no further updates.
func (c *LiveThreadContribution) Close(ctx context.Context) error {
	_, err := postAction(ctx, c.thread.r, "live_close", nil, c.thread.ID)
	return err
}

// Update edits the thread settings. Empty settings are a no-op and issue no request.
// The edit endpoint replaces every setting, so unspecified ones are read from the thread.
func (c *LiveThreadContribution) Update(ctx context.Context, settings ThreadSettings) error {
	if settings.empty() {
		return nil
	}

	form := url.Values{}
	for k, v := range settings.Other {
		form.Set(k, v)
	}

	t := c.thread
	title, err := pickString(ctx, settings.Title, t.Title)
	if err != nil {
		return err
	}
	description, err := pickString(ctx, settings.Description, t.Description)
	if err != nil {
		return err
	}
	resources, err := pickString(ctx, settings.Resources, t.Resources)
	if err != nil {
		return err
	}
	var nsfw bool
	if settings.NSFW != nil {
		nsfw = *settings.NSFW
	} else if nsfw, err = t.NSFW(ctx); err != nil {
		return err
	}

	form.Set("title", title)
	form.Set("description", description)
	form.Set("resources", resources)
	form.Set("nsfw", strconv.FormatBool(nsfw))

	if _, err := postAction(ctx, t.r, "live_edit", form, t.ID); err != nil {
		return err
	}
	slog.Debug("live thread settings updated", slog.String("thread", t.ID))
	return nil
}

func pickString(ctx context.Context, v *string, current func(context.Context) (string, error)) (string, error) {
	if v != nil {
		return *v, nil
	}
	return current(ctx)
}

// LiveUpdateContribution exposes contributor-only actions on one update.
type LiveUpdateContribution struct {
	update *LiveUpdate
}

// Remove deletes the update.
func (c *LiveUpdateContribution) Remove(ctx context.Context) error {
	return c.act(ctx, "live_delete")
}

// Strike marks the update as stricken (struck through).
func (c *LiveUpdateContribution) Strike(ctx context.Context) error {
	if err := c.act(ctx, "live_strike"); err != nil {
		return err
	}
	c.update.Set("stricken", true)
	return nil
}

func (c *LiveUpdateContribution) act(ctx context.Context, endpoint string) error {
	u := c.update
	if u.thread == nil {
		return newValueError("thread", "update has no thread")
	}
	_, err := postAction(ctx, u.r, endpoint, url.Values{"id": {u.Fullname()}}, u.thread.ID)
	return err
}
