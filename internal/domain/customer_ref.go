package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// CustomerRef is either a walk-in sale or a reference to a known customer.
// The zero value is a walk-in.
type CustomerRef struct {
	id string
}

func WalkIn() CustomerRef {
	return CustomerRef{}
}

func CustomerID(id string) CustomerRef {
	return CustomerRef{id: strings.TrimSpace(id)}
}

func (r CustomerRef) Get() (string, bool) {
	return r.id, r.id != ""
}

func (r CustomerRef) IsWalkIn() bool {
	return r.id == ""
}

func (r CustomerRef) String() string {
	if r.id == "" {
		return "walk-in"
	}
	return r.id
}

func (r CustomerRef) MarshalJSON() ([]byte, error) {
	if r.id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.id)
}

func (r *CustomerRef) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = WalkIn()
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*r = CustomerID(id)
	return nil
}
