package quiz

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndEvents(t *testing.T) {
	log := NewAnalyticsLog()

	log.Record("s1", "mq1", 0, Attempt{ItemID: "mq1_q1", TimeMS: 1200}, ItemResult{
		ItemID:  "mq1_q1",
		Correct: true,
		LOIDs:   []int{1, 2},
	})
	log.Record("s1", "mq1", 2, Attempt{ItemID: "mq1_q2", TimeMS: 800}, ItemResult{
		ItemID:     "mq1_q2",
		Correct:    false,
		ErrorClass: "client-still-constructs",
	})

	events := log.Events()
	require.Len(t, events, 2)

	assert.Equal(t, 1, events[0].PassFail)
	// Attempt numbers are 1-based even when the caller sends zero.
	assert.Equal(t, 1, events[0].Attempts)
	assert.Equal(t, []int{1, 2}, events[0].LOIDs)

	assert.Equal(t, 0, events[1].PassFail)
	assert.Equal(t, 2, events[1].Attempts)
	assert.Equal(t, "client-still-constructs", events[1].ErrorClass)
}

func TestEventsReturnsACopy(t *testing.T) {
	log := NewAnalyticsLog()
	log.Record("s1", "mq1", 1, Attempt{}, ItemResult{ItemID: "q1", Correct: true})

	events := log.Events()
	events[0].SessionID = "tampered"

	assert.Equal(t, "s1", log.Events()[0].SessionID)
}

func TestWriteCSV(t *testing.T) {
	log := NewAnalyticsLog()
	log.Record("s1", "mq1", 1, Attempt{ItemID: "q1", TimeMS: 500}, ItemResult{
		ItemID:     "q1",
		Correct:    false,
		LOIDs:      []int{4, 9},
		ErrorClass: "client-still-constructs",
	})

	var buf bytes.Buffer
	require.NoError(t, log.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ts,session_id,mq_id,item_id,lo_ids,pass_fail,attempts,time_ms,error_class,remedial_clicked", lines[0])
	assert.Contains(t, lines[1], "s1,mq1,q1,4|9,0,1,500,client-still-constructs,false")
}

func TestWriteCSVEmptyLog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewAnalyticsLog().WriteCSV(&buf))
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(buf.String()), "\n")+1)
}
