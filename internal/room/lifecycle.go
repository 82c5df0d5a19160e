package room

import (
	"github.com/looplab/fsm"
)

const (
	lifecycleLobby      = "lobby"
	lifecycleInProgress = "in_progress"
	lifecycleFinished   = "finished"

	lifecycleEventStart   = "start"
	lifecycleEventFinish  = "finish"
	lifecycleEventRestart = "restart"
)

// newLifecycle tracks the coarse room state. Rounds inside a game are the
// engine's business; the room only moves lobby -> in_progress -> finished,
// and back to in_progress on restart.
func newLifecycle() *fsm.FSM {
	return fsm.NewFSM(
		lifecycleLobby,
		fsm.Events{
			{
				Name: lifecycleEventStart,
				Src:  []string{lifecycleLobby},
				Dst:  lifecycleInProgress,
			},
			{
				Name: lifecycleEventFinish,
				Src:  []string{lifecycleInProgress},
				Dst:  lifecycleFinished,
			},
			{
				Name: lifecycleEventRestart,
				Src:  []string{lifecycleFinished},
				Dst:  lifecycleInProgress,
			},
		},
		fsm.Callbacks{},
	)
}
