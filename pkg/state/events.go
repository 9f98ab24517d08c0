package state

import (
	"github.com/ninja0404/launchpad-go-sdk/pkg/notify"
)

// ApplyEvent folds a push event into the store. It reports whether the
// store changed.
func (s *Store) ApplyEvent(ev notify.Event) bool {
	switch ev.Tag {
	case notify.TagBuyCompleted, notify.TagSellCompleted, notify.TagTransferCompleted:
		if !ev.Success || ev.Project == nil || ev.Project.ID == "" {
			return false
		}
		s.UpdateProject(*ev.Project)
		return true
	}
	return false
}
