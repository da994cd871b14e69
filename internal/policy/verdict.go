package policy

// Action identifies the operation being authorized.
type Action string

const (
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Verdict is the outcome of a policy check. A zero Verdict denies.
// Fields, when non-nil, restricts a write to the named fields: anything
// else in the payload is silently dropped, never partially applied.
// HideInternalNotes marks reads whose note listings must exclude internal
// annotations.
type Verdict struct {
	Allowed           bool
	Fields            []string
	HideInternalNotes bool
}

func deny() Verdict {
	return Verdict{}
}

func allow() Verdict {
	return Verdict{Allowed: true}
}

func allowFields(fields ...string) Verdict {
	return Verdict{Allowed: true, Fields: fields}
}

// FieldAllowed reports whether the verdict permits writing the named field.
func (v Verdict) FieldAllowed(name string) bool {
	if !v.Allowed {
		return false
	}
	if v.Fields == nil {
		return true
	}
	for _, f := range v.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// ListScope narrows list queries to the rows the actor may see. Exactly one
// shape applies: everything, an agent's book (optionally plus the
// unassigned pool for tickets), a technician's assignments, or the actor's
// own rows.
type ListScope struct {
	All               bool
	SelfUserID        *string
	AgentID           *string
	IncludeUnassigned bool
	TechID            *string
}

func scopeAll() ListScope {
	return ListScope{All: true}
}

func scopeSelf(userID string) ListScope {
	return ListScope{SelfUserID: &userID}
}

func scopeAgent(agentID string, includeUnassigned bool) ListScope {
	return ListScope{AgentID: &agentID, IncludeUnassigned: includeUnassigned}
}

func scopeTech(techID string) ListScope {
	return ListScope{TechID: &techID}
}
