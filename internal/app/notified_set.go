package app

import (
	"campsite_notification_bot/internal/domain/availability"
	"campsite_notification_bot/internal/domain/search"
)

type notifiedKey struct {
	park     string
	date     string
	facility string
	unitType string
}

// notifiedSet remembers rows that were already announced. A nil set
// remembers nothing, so every available row is announced every cycle.
type notifiedSet struct {
	keys map[notifiedKey]struct{}
}

func newNotifiedSet() *notifiedSet {
	return &notifiedSet{keys: make(map[notifiedKey]struct{})}
}

func keyOf(req search.Request, row availability.Row) notifiedKey {
	return notifiedKey{park: req.Park, date: req.ArrivalDate, facility: row.Facility, unitType: row.UnitType}
}

func (n *notifiedSet) contains(req search.Request, row availability.Row) bool {
	if n == nil {
		return false
	}
	_, ok := n.keys[keyOf(req, row)]
	return ok
}

func (n *notifiedSet) remember(req search.Request, row availability.Row) {
	if n != nil {
		n.keys[keyOf(req, row)] = struct{}{}
	}
}

func (n *notifiedSet) forget(req search.Request, row availability.Row) {
	if n != nil {
		delete(n.keys, keyOf(req, row))
	}
}
