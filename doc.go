// Package poke is a dependency-injection runtime.
//
// Bindings map a (type, qualifier) key to a Provider. Providers live in
// Components, and a Graph searches its attached Components to resolve the
// injection points of root objects:
//
//	cache := poke.NewScopeCache("app")
//	app := poke.NewComponent("app", poke.WithScopeCache(cache))
//	poke.RegisterType[*Repo](app, "")
//	poke.RegisterType[*Service](app, "")
//
//	g, err := poke.New(poke.WithComponents(app))
//	...
//	h := &Handler{} // Service *Service `inject:""`
//	err = poke.Inject(g, h)
//	defer poke.Release(g, h)
//
// A Provider with a ScopeCache shares one instance among every owner until
// the last one releases it; a Provider without one builds a new instance for
// each resolution. Scoped bindings may depend on each other in cycles;
// unscoped cycles fail with a circular dependency error.
//
// Use resolves a binding for the duration of a callback only:
//
//	err := poke.Use(g, "", func(s *Service) error {
//		return s.Run()
//	})
package poke
