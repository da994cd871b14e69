package dto

import (
	"encoding/json"
	"testing"
)

func TestNullableStringDistinguishesAbsentFromNull(t *testing.T) {
	var payload struct {
		AgentID NullableString `json:"agent_id"`
	}

	if err := json.Unmarshal([]byte(`{}`), &payload); err != nil {
		t.Fatalf("unmarshal absent: %v", err)
	}
	if payload.AgentID.Set {
		t.Errorf("absent field marked set")
	}

	payload.AgentID = NullableString{}
	if err := json.Unmarshal([]byte(`{"agent_id":null}`), &payload); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !payload.AgentID.Set || payload.AgentID.Value != nil {
		t.Errorf("explicit null: set=%v value=%v", payload.AgentID.Set, payload.AgentID.Value)
	}

	payload.AgentID = NullableString{}
	if err := json.Unmarshal([]byte(`{"agent_id":"agent-1"}`), &payload); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if !payload.AgentID.Set || payload.AgentID.Value == nil || *payload.AgentID.Value != "agent-1" {
		t.Errorf("value case: set=%v value=%v", payload.AgentID.Set, payload.AgentID.Value)
	}
}
