package domain

import "time"

type ProgressEvent struct {
	Message      string  `json:"message"`
	Progress     float64 `json:"progress"`
	CurrentBytes int64   `json:"currentBytes"`
	TotalBytes   int64   `json:"totalBytes"`
}

// Send delivers an event when a progress channel was supplied.
func Send(progressChan chan<- ProgressEvent, event ProgressEvent) {
	if progressChan != nil {
		progressChan <- event
	}
}

type ServerStats struct {
	CPU    float64       `json:"cpu"`
	RAM    uint64        `json:"ram"`
	Uptime time.Duration `json:"uptime"`
}
