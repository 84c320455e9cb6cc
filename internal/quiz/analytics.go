package quiz

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Event is one scored item, recorded for lecturer review. The log is
// in-memory only; a reporting layer can later enforce first-graded-attempt
// semantics for summative use.
type Event struct {
	TS              int64  `json:"ts"`
	SessionID       string `json:"session_id"`
	MQID            string `json:"mq_id"`
	ItemID          string `json:"item_id"`
	LOIDs           []int  `json:"lo_ids"`
	PassFail        int    `json:"pass_fail"`
	Attempts        int    `json:"attempts"`
	TimeMS          int    `json:"time_ms"`
	ErrorClass      string `json:"error_class,omitempty"`
	RemedialClicked bool   `json:"remedial_clicked"`
}

type AnalyticsLog struct {
	mu     sync.Mutex
	events []Event
}

func NewAnalyticsLog() *AnalyticsLog {
	return &AnalyticsLog{}
}

func (l *AnalyticsLog) Record(sessionID, mqID string, attemptNumber int, att Attempt, res ItemResult) {
	passFail := 0
	if res.Correct {
		passFail = 1
	}
	if attemptNumber < 1 {
		attemptNumber = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, Event{
		TS:         time.Now().UnixMilli(),
		SessionID:  sessionID,
		MQID:       mqID,
		ItemID:     res.ItemID,
		LOIDs:      res.LOIDs,
		PassFail:   passFail,
		Attempts:   attemptNumber,
		TimeMS:     att.TimeMS,
		ErrorClass: res.ErrorClass,
	})
}

func (l *AnalyticsLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// WriteCSV dumps the log for quick lecturer review.
func (l *AnalyticsLog) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	header := []string{
		"ts", "session_id", "mq_id", "item_id", "lo_ids",
		"pass_fail", "attempts", "time_ms", "error_class", "remedial_clicked",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, e := range l.Events() {
		los := make([]string, len(e.LOIDs))
		for i, lo := range e.LOIDs {
			los[i] = strconv.Itoa(lo)
		}
		row := []string{
			strconv.FormatInt(e.TS, 10),
			e.SessionID,
			e.MQID,
			e.ItemID,
			strings.Join(los, "|"),
			strconv.Itoa(e.PassFail),
			strconv.Itoa(e.Attempts),
			strconv.Itoa(e.TimeMS),
			e.ErrorClass,
			fmt.Sprint(e.RemedialClicked),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
