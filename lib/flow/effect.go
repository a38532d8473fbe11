package flow

import "context"

// Effect is a unit of work returned by a reducer. An effect with an ID
// supersedes any still running effect with the same ID: the older one's
// context is cancelled and whatever it produces is dropped.
type Effect[A any] struct {
	ID string

	run     func(ctx context.Context) []A
	actions []A
	cancel  bool
}

// Task runs work concurrently and feeds its action back into the store.
func Task[A any](id string, work func(ctx context.Context) A) Effect[A] {
	return Effect[A]{
		ID: id,
		run: func(ctx context.Context) []A {
			return []A{work(ctx)}
		},
	}
}

// Send queues actions behind everything already queued.
func Send[A any](actions ...A) Effect[A] {
	return Effect[A]{actions: actions}
}

// FireAndForget runs work concurrently and produces no action.
func FireAndForget[A any](work func(ctx context.Context)) Effect[A] {
	return Effect[A]{
		run: func(ctx context.Context) []A {
			work(ctx)
			return nil
		},
	}
}

// Cancel stops the running effect with the given ID, if any.
func Cancel[A any](id string) Effect[A] {
	return Effect[A]{ID: id, cancel: true}
}

// Map lifts an effect into a wider action type.
func Map[A, B any](effect Effect[A], embed func(A) B) Effect[B] {
	out := Effect[B]{
		ID:     effect.ID,
		cancel: effect.cancel,
	}
	for _, a := range effect.actions {
		out.actions = append(out.actions, embed(a))
	}
	if effect.run != nil {
		run := effect.run
		out.run = func(ctx context.Context) []B {
			produced := run(ctx)
			mapped := make([]B, 0, len(produced))
			for _, a := range produced {
				mapped = append(mapped, embed(a))
			}
			return mapped
		}
	}
	return out
}

// MapAll maps every effect of a list.
func MapAll[A, B any](effects []Effect[A], embed func(A) B) []Effect[B] {
	if len(effects) == 0 {
		return nil
	}
	out := make([]Effect[B], 0, len(effects))
	for _, e := range effects {
		out = append(out, Map(e, embed))
	}
	return out
}
