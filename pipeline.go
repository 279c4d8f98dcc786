package tmauth

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/miniware/tmauth/identity"
)

// Do executes req through the authenticated request pipeline. It implements
// [identity.Doer], so the Client can stand in wherever an *http.Client is
// accepted by this module.
//
// Behavior per logical call:
//   - Contexts marked [WithoutSession] bypass the pipeline entirely.
//   - A Bearer header is attached from the store when the request carries
//     none and a token is held. A present-but-expired token triggers one
//     coordinated refresh before the request goes out.
//   - A 401 on a request whose token the pipeline attached triggers one
//     coordinated refresh and exactly one replay. A second 401 is returned
//     as-is.
//   - A rejected refresh terminates the session and surfaces
//     [ErrSessionExpired] joined with the underlying cause. A caller whose
//     own context ends while waiting gets its context error back and the
//     session is left alone; the shared renewal keeps running.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}

	ctx := req.Context()
	if identity.SessionExempt(ctx) {
		return c.httpc.Do(req)
	}

	start := c.now()
	attached := false

	if req.Header.Get("Authorization") == "" {
		rec := c.store.Current()
		if rec.Expired(c.now()) && rec.HasRefreshToken() {
			if err := c.coordinatedRefresh(ctx); err != nil {
				return nil, err
			}
			rec = c.store.Current()
		}
		if rec.Authenticated(c.now()) {
			req.Header.Set("Authorization", "Bearer "+rec.AccessToken)
			attached = true
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && attached {
		resp, err = c.refreshAndReplay(req, resp)
		if err != nil {
			return nil, err
		}
	}

	c.metrics.Observe(MetricRequestLatency, c.now().Sub(start))
	return resp, nil
}

// refreshAndReplay handles the single 401 recovery path: one coordinated
// refresh, one replay.
func (c *Client) refreshAndReplay(req *http.Request, unauthorized *http.Response) (*http.Response, error) {
	ctx := req.Context()
	drain(unauthorized)

	if err := c.coordinatedRefresh(ctx); err != nil {
		return nil, err
	}

	retry, err := replayableClone(req)
	if err != nil {
		return nil, err
	}

	rec := c.store.Current()
	retry.Header.Set("Authorization", "Bearer "+rec.AccessToken)
	c.metrics.Inc(MetricRequestRetried)

	return c.httpc.Do(retry)
}

// coordinatedRefresh runs one coordinated renewal and classifies failure.
// Only a renewal rejection is fatal to the session. When the caller's own
// context ended while it waited, the cancellation is surfaced as-is and the
// store is left untouched; the leader's renewal may still commit.
func (c *Client) coordinatedRefresh(ctx context.Context) error {
	err := c.coordinator.Refresh(ctx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	c.terminateSession(ctx, err)
	return errors.Join(ErrSessionExpired, err)
}

// replayableClone rebuilds the request for the retry. Bodies must come from
// GetBody; a one-shot body cannot be replayed.
func replayableClone(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, ErrRequestNotReplayable
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, errors.Join(ErrRequestNotReplayable, err)
	}
	clone.Body = body
	return clone, nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	resp.Body.Close()
}
