package paths

import "github.com/goliatone/go-paths/pkg/activity"

// WithActivityHooks attaches hooks notified after each successful build and
// evaluation. Nil entries are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := activity.Clone(hooks)
	return func(cfg *config) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel sets the channel stamped on emitted events
// (default: activity.DefaultChannel).
func WithActivityChannel(channel string) Option {
	return func(cfg *config) {
		cfg.channel = channel
	}
}

// WithActor records who triggered builds in emitted activity events.
func WithActor(actorID, tenantID string) Option {
	return func(cfg *config) {
		cfg.actorID = actorID
		cfg.tenantID = tenantID
	}
}

// ActivityHooks returns a copy of the hooks configured on the wrapper.
func (p *Paths) ActivityHooks() activity.Hooks {
	if p == nil {
		return nil
	}
	return activity.Clone(p.cfg.activityHooks)
}
