package quiz

// ItemType distinguishes deterministically-scored MCQ items from
// free-response items that go through the LLM grader.
type ItemType string

const (
	MCQSingle ItemType = "mcq_single"
	MCQMulti  ItemType = "mcq_multi"
	FITB      ItemType = "fitb"
)

type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Item is one question. For MCQ items Answer is the option key (or keys);
// for free-response items it is the model answer / memo snippet.
type Item struct {
	ID               string   `json:"id"`
	Type             ItemType `json:"type"`
	Prompt           string   `json:"prompt"`
	Options          []Option `json:"options,omitempty"`
	Answer           any      `json:"answer"`
	Marks            int      `json:"marks"`
	LOIDs            []int    `json:"lo_ids"`
	ErrorClassOnMiss string   `json:"error_class_on_miss,omitempty"`
}

type MicroQuiz struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Desc       string `json:"desc"`
	Items      []Item `json:"items"`
	TotalMarks int    `json:"total_marks"`
	TargetLOs  []int  `json:"target_los"`
}

// Meta is the catalog view of a MicroQuiz: everything except the items.
type Meta struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Desc       string `json:"desc"`
	TotalMarks int    `json:"total_marks"`
	TargetLOs  []int  `json:"target_los"`
}

type Attempt struct {
	ItemID   string `json:"item_id"`
	Response any    `json:"response"`
	TimeMS   int    `json:"time_ms,omitempty"`
}

type SubmitPayload struct {
	SessionID     string    `json:"session_id"`
	MQID          string    `json:"mq_id"`
	Attempts      []Attempt `json:"attempts"`
	AttemptNumber int       `json:"attempt_number,omitempty"`
}

type ItemResult struct {
	ItemID       string `json:"item_id"`
	Correct      bool   `json:"correct"`
	MarksAwarded int    `json:"marks_awarded"`
	Expected     any    `json:"expected"`
	Feedback     string `json:"feedback,omitempty"`
	LOIDs        []int  `json:"lo_ids"`
	ErrorClass   string `json:"error_class,omitempty"`
}

type SubmitResult struct {
	SessionID     string       `json:"session_id"`
	MQID          string       `json:"mq_id"`
	AttemptNumber int          `json:"attempt_number"`
	Results       []ItemResult `json:"results"`
	TotalAwarded  int          `json:"total_awarded"`
	TotalPossible int          `json:"total_possible"`
}
