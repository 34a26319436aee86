package focus

// State is a step of the orchestrator's state machine.
//
//	Idle -> Enumerating -> NotFound -> Idle
//	                    -> Found -> Demoting -> Promoting -> FullscreenCheck
//	                       -> HookHandoff -> Active -> Idle
//
// Active is published once the session is handed to the launcher. The
// orchestrator then returns to Idle while the session keeps running.
type State int

const (
	Idle State = iota
	Enumerating
	NotFound
	Found
	Demoting
	Promoting
	FullscreenCheck
	HookHandoff
	Active
)

var stateNames = [...]string{
	Idle:            "idle",
	Enumerating:     "enumerating",
	NotFound:        "not_found",
	Found:           "found",
	Demoting:        "demoting",
	Promoting:       "promoting",
	FullscreenCheck: "fullscreen_check",
	HookHandoff:     "hook_handoff",
	Active:          "active",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
