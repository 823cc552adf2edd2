package domain

import (
	"encoding/json"
	"fmt"
)

// SensorState is a firmware state-machine state reported in heartbeat
// payloads. The wire format is a small integer index.
type SensorState int

const (
	StateIdle SensorState = iota
	StateInitialTimer
	StateDurationTimer
	StateStillnessTimer
)

var stateNames = map[SensorState]string{
	StateIdle:           "idle",
	StateInitialTimer:   "initial_timer",
	StateDurationTimer:  "duration_timer",
	StateStillnessTimer: "stillness_timer",
}

func (s SensorState) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("unknown_state(%d)", int(s))
}

// SensorStateFromIndex decodes a wire index into a SensorState. Indices
// outside the enumeration are an upstream firmware contract violation and are
// reported as errors rather than silently mapped.
func SensorStateFromIndex(i int) (SensorState, error) {
	s := SensorState(i)
	if _, ok := stateNames[s]; !ok {
		return 0, fmt.Errorf("sensor state index %d out of range", i)
	}
	return s, nil
}

// TransitionReason is why the firmware state machine moved between states.
type TransitionReason int

const (
	ReasonMovement TransitionReason = iota
	ReasonNoMovement
	ReasonDoorOpen
	ReasonInitialTimer
	ReasonDurationAlert
	ReasonStillnessAlert
)

var reasonNames = map[TransitionReason]string{
	ReasonMovement:       "movement",
	ReasonNoMovement:     "no_movement",
	ReasonDoorOpen:       "door_open",
	ReasonInitialTimer:   "initial_timer",
	ReasonDurationAlert:  "duration_alert",
	ReasonStillnessAlert: "stillness_alert",
}

func (r TransitionReason) String() string {
	if n, ok := reasonNames[r]; ok {
		return n
	}
	return fmt.Sprintf("unknown_reason(%d)", int(r))
}

// TransitionReasonFromIndex decodes a wire index into a TransitionReason.
func TransitionReasonFromIndex(i int) (TransitionReason, error) {
	r := TransitionReason(i)
	if _, ok := reasonNames[r]; !ok {
		return 0, fmt.Errorf("transition reason index %d out of range", i)
	}
	return r, nil
}

// StateTransition is one decoded firmware state change. Time is the firmware
// tick the transition happened at, as reported by the device.
type StateTransition struct {
	State  SensorState      `json:"state"`
	Reason TransitionReason `json:"reason"`
	Time   float64          `json:"time"`
}

func (s SensorState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SensorState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for k, v := range stateNames {
		if v == name {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown sensor state %q", name)
}

func (r TransitionReason) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *TransitionReason) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for k, v := range reasonNames {
		if v == name {
			*r = k
			return nil
		}
	}
	return fmt.Errorf("unknown transition reason %q", name)
}

// DecodeStateTransition turns a raw wire tuple [stateIndex, reasonIndex, time]
// into a named transition.
func DecodeStateTransition(raw [3]float64) (StateTransition, error) {
	state, err := SensorStateFromIndex(int(raw[0]))
	if err != nil {
		return StateTransition{}, err
	}
	reason, err := TransitionReasonFromIndex(int(raw[1]))
	if err != nil {
		return StateTransition{}, err
	}
	return StateTransition{State: state, Reason: reason, Time: raw[2]}, nil
}
