package domain

import "time"

// Installation is the provisioning record of one server directory.
type Installation struct {
	Root          string    `json:"root"`
	Project       string    `json:"project"`
	Version       string    `json:"version"`
	Build         int       `json:"build"`
	JavaMajor     int       `json:"javaMajor"`
	JavaPath      string    `json:"javaPath"`
	MinHeapMB     int       `json:"minHeapMb"`
	MaxHeapMB     int       `json:"maxHeapMb"`
	Port          int       `json:"port"`
	EULAAccepted  bool      `json:"eulaAccepted"`
	ProvisionedAt time.Time `json:"provisionedAt"`
}
