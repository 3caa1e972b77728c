package model

import (
	"encoding/json"
	"time"
)

// Event is an organization-scheduled service session with a token capacity.
type Event struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Title            string    `gorm:"size:256;not null" json:"title"`
	OrganizationType string    `gorm:"size:128;not null" json:"organizationType"`
	OrganizationName string    `gorm:"size:256;not null" json:"organizationName"`
	Date             string    `gorm:"size:32;not null" json:"date"`
	Time             string    `gorm:"size:32;not null" json:"time"`
	Location         string    `gorm:"size:256;not null" json:"location"`
	TotalTokens      int       `gorm:"not null" json:"totalTokens"`
	ServiceTypesRaw  string    `gorm:"column:service_types;size:1024" json:"-"`
	CreatedAt        time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"not null" json:"updatedAt"`
}

// SetServiceTypes stores the service type list as JSON.
func (e *Event) SetServiceTypes(types []string) error {
	if len(types) == 0 {
		e.ServiceTypesRaw = "[]"
		return nil
	}
	raw, err := json.Marshal(types)
	if err != nil {
		return err
	}
	e.ServiceTypesRaw = string(raw)
	return nil
}

// ServiceTypes decodes the stored service type list.
func (e *Event) ServiceTypes() []string {
	if e.ServiceTypesRaw == "" {
		return nil
	}
	var types []string
	if err := json.Unmarshal([]byte(e.ServiceTypesRaw), &types); err != nil {
		return nil
	}
	return types
}
