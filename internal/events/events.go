package events

import "time"

const (
	TypeInventorySynced = "inventory.synced"
	TypeMotorUpdated    = "motor.updated"
)

// Event is the envelope sent to every subscriber, one JSON object per line.
type Event struct {
	Type     string    `json:"type"`
	RunID    string    `json:"run_id,omitempty"`
	ModelKey string    `json:"model_key,omitempty"`
	Fetched  int       `json:"fetched,omitempty"`
	Upserted int       `json:"upserted,omitempty"`
	Dropped  int       `json:"dropped,omitempty"`
	Failed   []string  `json:"failed,omitempty"`
	At       time.Time `json:"at"`
}

func InventorySynced(runID string, fetched, upserted, dropped int, failed []string) Event {
	return Event{
		Type:     TypeInventorySynced,
		RunID:    runID,
		Fetched:  fetched,
		Upserted: upserted,
		Dropped:  dropped,
		Failed:   failed,
		At:       time.Now().UTC(),
	}
}

func MotorUpdated(runID, modelKey string) Event {
	return Event{Type: TypeMotorUpdated, RunID: runID, ModelKey: modelKey, At: time.Now().UTC()}
}

// Publisher is what producers of events depend on.
type Publisher interface {
	Publish(ev Event)
}
