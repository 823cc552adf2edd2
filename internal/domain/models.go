package domain

import "time"

type LocationID string

// Location is one monitored installation: a door sensor and a radar unit
// (and optionally a siren) deployed at a single physical place.
type Location struct {
	ID                    LocationID `json:"locationid"`
	DisplayName           string     `json:"display_name"`
	DoorCoreID            string     `json:"door_core_id"`
	RadarCoreID           string     `json:"radar_core_id"`
	RadarType             string     `json:"radar_type"`
	SirenCoreID           string     `json:"siren_core_id"`
	MovementThreshold     int        `json:"movement_threshold"`
	InitialTimer          int        `json:"initial_timer"`
	DurationTimer         int        `json:"duration_timer"`
	StillnessTimer        int        `json:"stillness_timer"`
	ReminderTimer         int        `json:"reminder_timer"`
	FallbackTimer         int        `json:"fallback_timer"`
	IsActive              bool       `json:"is_active"`
	FirmwareStateMachine  bool       `json:"firmware_state_machine"`
	SentVitalsAlertAt     *time.Time `json:"sent_vitals_alert_at"`      // nil = no outstanding disconnection alert
	SentLowBatteryAlertAt *time.Time `json:"sent_low_battery_alert_at"` // nil = no outstanding low-battery alert
	Client                *Client    `json:"client"`
}

// Client owns locations and carries the notification routing for them.
type Client struct {
	ID                  string   `json:"id"`
	DisplayName         string   `json:"display_name"`
	IsActive            bool     `json:"is_active"`
	ResponderPhones     []string `json:"responder_phone_numbers"`
	HeartbeatRecipients []string `json:"heartbeat_phone_numbers"`
	FallbackPhones      []string `json:"fallback_phone_numbers"`
	FromPhone           string   `json:"from_phone_number"`
	Language            string   `json:"language"`
	AlertAPIKey         string   `json:"alert_api_key"`
}

// SensorVital is one ingested heartbeat. Rows are append-only; only the most
// recent row per location is consulted by the sweep.
type SensorVital struct {
	ID             string            `json:"id"`
	LocationID     LocationID        `json:"locationid"`
	MissedCount    int               `json:"door_missed_count"`
	LowBattery     bool              `json:"door_low_battery"`
	DoorLastSeenAt time.Time         `json:"door_last_seen_at"`
	ResetReason    string            `json:"reset_reason"`
	Transitions    []StateTransition `json:"state_transitions"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Chatbot states a session moves through. Only Completed matters to this
// engine: a completed session is no longer an alert conversation.
const (
	ChatbotStarted        = "Started"
	ChatbotWaitingForCat  = "Waiting for incident category"
	ChatbotWaitingForResp = "Waiting for response"
	ChatbotCompleted      = "Completed"
)

// Session is one alert conversation tied to a location. The escalation path
// reads and touches the most recent session; richer state transitions are
// owned by the external alerting component.
type Session struct {
	ID             string     `json:"id"`
	LocationID     LocationID `json:"locationid"`
	ResponderPhone string     `json:"phone_number"`
	AlertType      string     `json:"alert_type"`
	ChatbotState   string     `json:"chatbot_state"`
	IncidentType   string     `json:"incident_type"`
	Notes          string     `json:"notes"`
	RespondedAt    *time.Time `json:"responded_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
