package types

import "time"

// ProjectTag is the tag key used to group instances into projects
const ProjectTag = "Project"

// NoProject is displayed for instances without a Project tag
const NoProject = "<no project>"

// InstanceState represents the lifecycle state of an EC2 instance
type InstanceState string

const (
	InstanceStatePending      InstanceState = "pending"
	InstanceStateRunning      InstanceState = "running"
	InstanceStateStopping     InstanceState = "stopping"
	InstanceStateStopped      InstanceState = "stopped"
	InstanceStateShuttingDown InstanceState = "shutting-down"
	InstanceStateTerminated   InstanceState = "terminated"
)

// Instance represents an EC2 instance
type Instance struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`        // t3.micro, m5.large
	AZ         string            `json:"az"`          // Availability zone
	State      InstanceState     `json:"state"`       // running, stopped, ...
	PublicDNS  string            `json:"public_dns"`  // empty when not assigned
	Tags       map[string]string `json:"tags"`        // All tags
	LaunchTime time.Time         `json:"launch_time"` // Launch time
	VolumeIDs  []string          `json:"volume_ids"`  // Attached EBS volumes, device order
}

// Project returns the Project tag value and whether the tag is present
func (i *Instance) Project() (string, bool) {
	if i.Tags == nil {
		return "", false
	}
	p, ok := i.Tags[ProjectTag]
	return p, ok
}

// ProjectOrPlaceholder returns the Project tag value, or NoProject when unset
func (i *Instance) ProjectOrPlaceholder() string {
	if p, ok := i.Project(); ok {
		return p
	}
	return NoProject
}

// InProject reports whether the instance's Project tag is exactly project
func (i *Instance) InProject(project string) bool {
	p, ok := i.Project()
	return ok && p == project
}
