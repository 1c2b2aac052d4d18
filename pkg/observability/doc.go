/*
Package observability turns form lifecycle events into metrics and logs.

Both helpers return domain.LifecycleHooks, so they compose with each other
and with caller hooks through domain.ChainHooks:

	m := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := domain.ChainHooks(m.Hooks(), observability.LogHooks(logger))
	f := bp.NewForm(ctx, form.WithLifecycleHooks(hooks))
*/
package observability
