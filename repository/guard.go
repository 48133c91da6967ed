package repository

import "zapcrm/models"

// ConversationGuard is the precondition of a state transition.
type ConversationGuard struct {
	Statuses   []string
	Unassigned bool
	Archived   *bool
}

func (g ConversationGuard) Allows(c *models.Conversation) bool {
	if c == nil {
		return false
	}
	if len(g.Statuses) > 0 {
		found := false
		for _, s := range g.Statuses {
			if c.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if g.Unassigned && c.AssignedToID != nil {
		return false
	}
	if g.Archived != nil && c.IsArchived != *g.Archived {
		return false
	}
	return true
}

// ConversationChange lists the operator-owned columns a transition writes. Nil means untouched.
type ConversationChange struct {
	Status             *string
	AssignedToID       *int64
	IsArchived         *bool
	ArchivedFromStatus *string
	Priority           *string
	Tags               *models.StringList
	Notes              *string
}

func (ch ConversationChange) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if ch.Status != nil {
		cols["status"] = *ch.Status
	}
	if ch.AssignedToID != nil {
		id := *ch.AssignedToID
		cols["assigned_to_id"] = &id
	}
	if ch.IsArchived != nil {
		cols["is_archived"] = *ch.IsArchived
	}
	if ch.ArchivedFromStatus != nil {
		cols["archived_from_status"] = *ch.ArchivedFromStatus
	}
	if ch.Priority != nil {
		cols["priority"] = *ch.Priority
	}
	if ch.Tags != nil {
		cols["tags"] = *ch.Tags
	}
	if ch.Notes != nil {
		cols["notes"] = *ch.Notes
	}
	return cols
}

func (ch ConversationChange) apply(c *models.Conversation) {
	if ch.Status != nil {
		c.Status = *ch.Status
	}
	if ch.AssignedToID != nil {
		id := *ch.AssignedToID
		c.AssignedToID = &id
	}
	if ch.IsArchived != nil {
		c.IsArchived = *ch.IsArchived
	}
	if ch.ArchivedFromStatus != nil {
		c.ArchivedFromStatus = *ch.ArchivedFromStatus
	}
	if ch.Priority != nil {
		c.Priority = *ch.Priority
	}
	if ch.Tags != nil {
		c.Tags = append(models.StringList(nil), (*ch.Tags)...)
	}
	if ch.Notes != nil {
		c.Notes = *ch.Notes
	}
}

// appliedTo reports whether c already holds every value the change writes.
func (ch ConversationChange) appliedTo(c *models.Conversation) bool {
	if c == nil {
		return false
	}
	if ch.Status != nil && c.Status != *ch.Status {
		return false
	}
	if ch.AssignedToID != nil && (c.AssignedToID == nil || *c.AssignedToID != *ch.AssignedToID) {
		return false
	}
	if ch.IsArchived != nil && c.IsArchived != *ch.IsArchived {
		return false
	}
	if ch.ArchivedFromStatus != nil && c.ArchivedFromStatus != *ch.ArchivedFromStatus {
		return false
	}
	if ch.Priority != nil && c.Priority != *ch.Priority {
		return false
	}
	if ch.Tags != nil {
		if len(c.Tags) != len(*ch.Tags) {
			return false
		}
		for i, tag := range *ch.Tags {
			if c.Tags[i] != tag {
				return false
			}
		}
	}
	if ch.Notes != nil && c.Notes != *ch.Notes {
		return false
	}
	return true
}
