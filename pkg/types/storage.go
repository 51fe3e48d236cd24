package types

import "time"

// Volume represents an EBS volume attached to an instance
type Volume struct {
	ID         string    `json:"id"`
	InstanceID string    `json:"instance_id"` // Instance it was listed under
	State      string    `json:"state"`       // in-use, available, ...
	SizeGiB    int32     `json:"size_gib"`
	Encrypted  bool      `json:"encrypted"`
	VolumeType string    `json:"volume_type"` // gp3, io2, ...
	AZ         string    `json:"az"`
	CreatedAt  time.Time `json:"created_at"`
}

// EncryptionLabel returns the human readable encryption status
func (v *Volume) EncryptionLabel() string {
	if v.Encrypted {
		return "Encrypted"
	}
	return "Not Encrypted"
}

// SnapshotState represents the state of an EBS snapshot
type SnapshotState string

const (
	SnapshotStatePending   SnapshotState = "pending"
	SnapshotStateCompleted SnapshotState = "completed"
	SnapshotStateError     SnapshotState = "error"
)

// Snapshot represents an EBS snapshot of a volume
type Snapshot struct {
	ID          string        `json:"id"`
	VolumeID    string        `json:"volume_id"`
	InstanceID  string        `json:"instance_id"`
	State       SnapshotState `json:"state"`
	Progress    string        `json:"progress"` // "100%"
	StartTime   time.Time     `json:"start_time"`
	Description string        `json:"description"`
}

// IsPending returns true if the snapshot has not completed yet
func (s *Snapshot) IsPending() bool {
	return s.State == SnapshotStatePending
}
