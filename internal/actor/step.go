package actor

// Apply folds a sequence of inputs through a reducer and returns the final
// state together with every effect produced along the way, in order.
//
// It never executes effects and is meant for reducer-level tests and replay.
func Apply[S any](state S, reducer ReducerFunc[S], inputs ...Input) (S, []Effect) {
	var all []Effect
	for _, in := range inputs {
		var effects []Effect
		state, effects = reducer(state, in)
		all = append(all, effects...)
	}
	return state, all
}
