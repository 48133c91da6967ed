package services

/************************************************
/**** MARK: OUTCOME ****/
/************************************************/
const OUTCOME_CREATED = "created"
const OUTCOME_UPDATED = "updated"
const OUTCOME_SKIPPED = "skipped"
const OUTCOME_ERROR = "error"

const KIND_CONTACT = "contact"
const KIND_CONVERSATION = "conversation"
const KIND_MESSAGE = "message"

// ItemOutcome is the result of reconciling one Gateway record.
type ItemOutcome struct {
	Kind     string `json:"kind"`
	Key      string `json:"key"`
	Action   string `json:"action"`
	EntityID int64  `json:"entity_id,omitempty"`
	Err      error  `json:"-"`
	Error    string `json:"error,omitempty"`
}

func created(kind, key string, id int64) ItemOutcome {
	return ItemOutcome{Kind: kind, Key: key, Action: OUTCOME_CREATED, EntityID: id}
}

func updated(kind, key string, id int64) ItemOutcome {
	return ItemOutcome{Kind: kind, Key: key, Action: OUTCOME_UPDATED, EntityID: id}
}

func skipped(kind, key string, id int64) ItemOutcome {
	return ItemOutcome{Kind: kind, Key: key, Action: OUTCOME_SKIPPED, EntityID: id}
}

func failed(kind, key string, err error) ItemOutcome {
	return ItemOutcome{Kind: kind, Key: key, Action: OUTCOME_ERROR, Err: err, Error: err.Error()}
}

type Counts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

func (c *Counts) add(o ItemOutcome) {
	switch o.Action {
	case OUTCOME_CREATED:
		c.Created++
	case OUTCOME_UPDATED:
		c.Updated++
	case OUTCOME_SKIPPED:
		c.Skipped++
	case OUTCOME_ERROR:
		c.Errors++
	}
}

// CountKind aggregates the outcomes of one kind.
func CountKind(items []ItemOutcome, kind string) Counts {
	var c Counts
	for _, o := range items {
		if o.Kind == kind {
			c.add(o)
		}
	}
	return c
}

// Failures returns only the failed outcomes.
func Failures(items []ItemOutcome) []ItemOutcome {
	var out []ItemOutcome
	for _, o := range items {
		if o.Action == OUTCOME_ERROR {
			out = append(out, o)
		}
	}
	return out
}
