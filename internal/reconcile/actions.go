package reconcile

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/macrat/ssdash/internal/dasherr"
	"github.com/macrat/ssdash/lib-ssdash"
)

// requireAuth rejects mutating actions before calling the source if the session is public.
func (c *Controller) requireAuth() error {
	if c.Gate.Level() != ssdash.AuthAuthenticated {
		return dasherr.New(ssdash.ErrUnauthorized, nil, "login required")
	}
	return nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return dasherr.New(ssdash.ErrInvalidEndpoint, nil, "invalid endpoint id: %q", id)
	}
	return nil
}

// checkAuthError drops the session to public if err is an authorization error.
// The action that caused err is abandoned, not retried.
func (c *Controller) checkAuthError(action string, err error) error {
	if errors.Is(err, ssdash.ErrUnauthorized) {
		c.Logger.Warn("unauthorized", "action", action, "error", err)
		c.Gate.SetLevel(ssdash.AuthPublic)
	}
	return err
}

// Login creates a session, and switches to authenticated level.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return dasherr.New(ssdash.ErrInvalidCredentials, nil, "username and password are required")
	}

	if err := c.Source.Login(ctx, username, password); err != nil {
		return c.checkAuthError("login", err)
	}

	c.Logger.Info("logged in", "username", username)
	c.Gate.SetLevel(ssdash.AuthAuthenticated)

	return nil
}

// Logout discards the session, and switches to public level.
// The level is changed even if the source failed to discard the session.
func (c *Controller) Logout(ctx context.Context) error {
	err := c.Source.Logout(ctx)
	c.Gate.SetLevel(ssdash.AuthPublic)

	if err != nil && !errors.Is(err, ssdash.ErrUnauthorized) {
		c.Logger.Warn("failed to logout", "error", err)
		return err
	}

	c.Logger.Info("logged out")
	return nil
}

// CheckAuth asks the source if the current session is still valid, and updates the level.
func (c *Controller) CheckAuth(ctx context.Context) (bool, error) {
	ok, err := c.Source.AuthStatus(ctx)
	if err != nil {
		return false, c.checkAuthError("check-auth", err)
	}

	if ok {
		c.Gate.SetLevel(ssdash.AuthAuthenticated)
	} else {
		c.Gate.SetLevel(ssdash.AuthPublic)
	}
	return ok, nil
}

// CreateEndpoint validates the input and creates a new endpoint.
// The store shows the new endpoint before the refetch finishes.
func (c *Controller) CreateEndpoint(ctx context.Context, in ssdash.EndpointInput) (ssdash.Endpoint, error) {
	in, err := in.Normalize()
	if err != nil {
		return ssdash.Endpoint{}, err
	}
	if err := c.requireAuth(); err != nil {
		return ssdash.Endpoint{}, err
	}

	e, err := c.Source.CreateEndpoint(ctx, in)
	if err != nil {
		return ssdash.Endpoint{}, c.checkAuthError("create", err)
	}

	c.Logger.Info("endpoint created", "endpoint", e.ID, "name", e.Name)
	c.upsert(e)
	c.Refresh()

	return e, nil
}

// UpdateEndpoint validates the input and replaces the endpoint.
func (c *Controller) UpdateEndpoint(ctx context.Context, id string, in ssdash.EndpointInput) (ssdash.Endpoint, error) {
	if err := validateID(id); err != nil {
		return ssdash.Endpoint{}, err
	}
	in, err := in.Normalize()
	if err != nil {
		return ssdash.Endpoint{}, err
	}
	if err := c.requireAuth(); err != nil {
		return ssdash.Endpoint{}, err
	}

	e, err := c.Source.UpdateEndpoint(ctx, id, in)
	if err != nil {
		return ssdash.Endpoint{}, c.checkAuthError("update", err)
	}

	c.Logger.Info("endpoint updated", "endpoint", e.ID, "name", e.Name)
	c.upsert(e)
	c.Refresh()

	return e, nil
}

// DeleteEndpoint deletes the endpoint.
func (c *Controller) DeleteEndpoint(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := c.requireAuth(); err != nil {
		return err
	}

	if err := c.Source.DeleteEndpoint(ctx, id); err != nil {
		return c.checkAuthError("delete", err)
	}

	c.Logger.Info("endpoint deleted", "endpoint", id)
	c.Refresh()

	return nil
}

// GetEndpoint fetches the full definition of an endpoint from the source.
func (c *Controller) GetEndpoint(ctx context.Context, id string) (ssdash.Endpoint, error) {
	if err := validateID(id); err != nil {
		return ssdash.Endpoint{}, err
	}
	if err := c.requireAuth(); err != nil {
		return ssdash.Endpoint{}, err
	}

	e, err := c.Source.GetEndpoint(ctx, id)
	if err != nil {
		return ssdash.Endpoint{}, c.checkAuthError("get", err)
	}
	return e, nil
}

// TriggerCheck requests a check right now.
//
// The result is not applied to the store here; the push stream delivers it.
func (c *Controller) TriggerCheck(ctx context.Context, id string) (ssdash.CheckResult, error) {
	if err := validateID(id); err != nil {
		return ssdash.CheckResult{}, err
	}
	if err := c.requireAuth(); err != nil {
		return ssdash.CheckResult{}, err
	}

	r, err := c.Source.TriggerCheck(ctx, id)
	if err != nil {
		return ssdash.CheckResult{}, c.checkAuthError("check", err)
	}
	return r, nil
}

// History fetches recent results of an endpoint from the source, newest first.
func (c *Controller) History(ctx context.Context, id string, limit int) ([]ssdash.CheckResult, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	rs, err := c.Source.History(ctx, id, limit)
	if err != nil {
		return nil, c.checkAuthError("history", err)
	}
	return rs, nil
}

// Settings fetches the checker server settings.
func (c *Controller) Settings(ctx context.Context) (ssdash.Settings, error) {
	if err := c.requireAuth(); err != nil {
		return ssdash.Settings{}, err
	}

	s, err := c.Source.Settings(ctx)
	if err != nil {
		return ssdash.Settings{}, c.checkAuthError("settings", err)
	}
	return s, nil
}

// UpdateSettings changes the check interval of the checker server.
func (c *Controller) UpdateSettings(ctx context.Context, intervalSecs uint64) (ssdash.Settings, error) {
	s := ssdash.Settings{CheckIntervalSecs: intervalSecs}
	if err := s.Validate(); err != nil {
		return ssdash.Settings{}, err
	}
	if err := c.requireAuth(); err != nil {
		return ssdash.Settings{}, err
	}

	s, err := c.Source.UpdateSettings(ctx, s)
	if err != nil {
		return ssdash.Settings{}, c.checkAuthError("update-settings", err)
	}

	c.Logger.Info("settings updated", "check_interval_secs", s.CheckIntervalSecs)
	return s, nil
}
