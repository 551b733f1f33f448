package stamp

import (
	"github.com/looplab/fsm"
)

// States of a stamp run.
const (
	StateInit           = "INIT"
	StateArchived       = "ARCHIVED"
	StateUploaded       = "UPLOADED"
	StateStampSent      = "STAMP_SENT"
	StateStampConfirmed = "STAMP_CONFIRMED"
	StateFundSent       = "FUND_SENT"
	StateFundConfirmed  = "FUND_CONFIRMED"
	StateDone           = "DONE"
	StateFailed         = "FAILED"
)

// Events that move a run between states.
const (
	EventArchive      = "archive"
	EventUpload       = "upload"
	EventSendStamp    = "send_stamp"
	EventConfirmStamp = "confirm_stamp"
	EventSendFund     = "send_fund"
	EventConfirmFund  = "confirm_fund"
	EventFinish       = "finish"
	EventFail         = "fail"
)

// NewStateMachine creates the run state machine starting at initial.
// States:
// INIT -> ARCHIVED -> UPLOADED -> STAMP_SENT -> STAMP_CONFIRMED ->
// FUND_SENT -> FUND_CONFIRMED -> DONE, with FAILED reachable from every
// non-terminal state.
func NewStateMachine(initial string, callbacks fsm.Callbacks) *fsm.FSM {
	if callbacks == nil {
		callbacks = fsm.Callbacks{}
	}
	return fsm.NewFSM(
		initial,
		fsm.Events{
			{Name: EventArchive, Src: []string{StateInit}, Dst: StateArchived},
			{Name: EventUpload, Src: []string{StateArchived}, Dst: StateUploaded},
			{Name: EventSendStamp, Src: []string{StateUploaded}, Dst: StateStampSent},
			{Name: EventConfirmStamp, Src: []string{StateStampSent}, Dst: StateStampConfirmed},
			{Name: EventSendFund, Src: []string{StateStampConfirmed}, Dst: StateFundSent},
			{Name: EventConfirmFund, Src: []string{StateFundSent}, Dst: StateFundConfirmed},
			{Name: EventFinish, Src: []string{StateFundConfirmed}, Dst: StateDone},
			{
				Name: EventFail,
				Src: []string{
					StateInit,
					StateArchived,
					StateUploaded,
					StateStampSent,
					StateStampConfirmed,
					StateFundSent,
					StateFundConfirmed,
				},
				Dst: StateFailed,
			},
		},
		callbacks,
	)
}

// nextEvent is the forward event out of state, "" for terminal states.
func nextEvent(state string) string {
	switch state {
	case StateInit:
		return EventArchive
	case StateArchived:
		return EventUpload
	case StateUploaded:
		return EventSendStamp
	case StateStampSent:
		return EventConfirmStamp
	case StateStampConfirmed:
		return EventSendFund
	case StateFundSent:
		return EventConfirmFund
	case StateFundConfirmed:
		return EventFinish
	default:
		return ""
	}
}

// resumable reports whether a journaled run can continue from state.
// Earlier states have not touched the ledger and simply start over.
func resumable(state string) bool {
	switch state {
	case StateStampSent, StateStampConfirmed, StateFundSent, StateFundConfirmed:
		return true
	default:
		return false
	}
}
