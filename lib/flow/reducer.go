package flow

// Reducer applies action to state in place and returns the work it implies.
// It must not block or perform io, that belongs in the returned effects.
type Reducer[S, A, E any] func(state *S, action A, env E) []Effect[A]

// Combine runs reducers in order over the same action.
func Combine[S, A, E any](reducers ...Reducer[S, A, E]) Reducer[S, A, E] {
	return func(state *S, action A, env E) []Effect[A] {
		var effects []Effect[A]
		for _, reduce := range reducers {
			effects = append(effects, reduce(state, action, env)...)
		}
		return effects
	}
}

// Pullback lifts a child reducer into a parent. extract picks the child
// actions out of the parent action, embed wraps them back for the effects the
// child returns.
func Pullback[PS, PA, PE, CS, CA, CE any](
	child Reducer[CS, CA, CE],
	state func(*PS) *CS,
	extract func(PA) (CA, bool),
	embed func(CA) PA,
	env func(PE) CE,
) Reducer[PS, PA, PE] {
	return func(parent *PS, action PA, parentEnv PE) []Effect[PA] {
		childAction, ok := extract(action)
		if !ok {
			return nil
		}
		effects := child(state(parent), childAction, env(parentEnv))
		return MapAll(effects, embed)
	}
}
