package catalog

import (
	"crafthost/internal/domain"
	"io"
)

type ProgressReader struct {
	Reader       io.Reader
	Total        int64
	Current      int64
	ProgressChan chan<- domain.ProgressEvent
	Message      string
	lastPercent  int
}

func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	pr.Current += int64(n)

	if pr.ProgressChan != nil && pr.Total > 0 {
		percentage := float64(pr.Current) / float64(pr.Total) * 100
		// at most one event per whole percent
		if int(percentage) > pr.lastPercent || pr.Current == pr.Total {
			pr.lastPercent = int(percentage)
			pr.ProgressChan <- domain.ProgressEvent{
				Message:      pr.Message,
				Progress:     percentage,
				CurrentBytes: pr.Current,
				TotalBytes:   pr.Total,
			}
		}
	}

	return n, err
}
