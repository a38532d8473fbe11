package setting

import "ehclient/lib/flow"

type Route int

const (
	ROUTE_NONE Route = iota
	ROUTE_ACCOUNT
	ROUTE_GENERAL
	ROUTE_APPEARANCE
	ROUTE_READING
	ROUTE_LABORATORY
	ROUTE_ABOUT
)

type AppearanceState struct {
	Route Route
}

type AppearanceAction interface {
	appearanceAction()
}

type SetRoute struct{ Route Route }

func (SetRoute) appearanceAction() {}

func reduceAppearance(state *AppearanceState, action AppearanceAction, _ struct{}) []flow.Effect[AppearanceAction] {
	switch action := action.(type) {
	case SetRoute:
		state.Route = action.Route
	}
	return nil
}
