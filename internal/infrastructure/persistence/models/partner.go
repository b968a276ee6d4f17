package models

import (
	"github.com/shivfurniture/erp/internal/domain/partner"
)

// ContactModel is the persistence model for vendors and customers
type ContactModel struct {
	AggregateModel
	Name               string              `gorm:"type:varchar(200);not null;index"`
	Type               partner.ContactType `gorm:"type:varchar(20);not null;index"`
	Email              string              `gorm:"type:varchar(200);index"`
	Phone              string              `gorm:"type:varchar(50)"`
	Address            string              `gorm:"type:text"`
	City               string              `gorm:"type:varchar(100)"`
	State              string              `gorm:"type:varchar(100)"`
	PostalCode         string              `gorm:"type:varchar(20)"`
	GSTIN              string              `gorm:"column:gstin;type:varchar(15)"`
	Active             bool                `gorm:"column:is_active;not null;default:true"`
	IsPortalUser       bool                `gorm:"not null;default:false"`
	PortalPasswordHash string              `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (ContactModel) TableName() string {
	return "contacts"
}

// ToDomain converts the persistence model to a domain Contact
func (m *ContactModel) ToDomain() *partner.Contact {
	return &partner.Contact{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		Name:               m.Name,
		Type:               m.Type,
		Email:              m.Email,
		Phone:              m.Phone,
		Address:            m.Address,
		City:               m.City,
		State:              m.State,
		PostalCode:         m.PostalCode,
		GSTIN:              m.GSTIN,
		Active:             m.Active,
		IsPortalUser:       m.IsPortalUser,
		PortalPasswordHash: m.PortalPasswordHash,
	}
}

// FromDomain populates the persistence model from a domain Contact
func (m *ContactModel) FromDomain(c *partner.Contact) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.Type = c.Type
	m.Email = c.Email
	m.Phone = c.Phone
	m.Address = c.Address
	m.City = c.City
	m.State = c.State
	m.PostalCode = c.PostalCode
	m.GSTIN = c.GSTIN
	m.Active = c.Active
	m.IsPortalUser = c.IsPortalUser
	m.PortalPasswordHash = c.PortalPasswordHash
}

// ContactModelFromDomain creates a persistence model from a domain Contact
func ContactModelFromDomain(c *partner.Contact) *ContactModel {
	m := &ContactModel{}
	m.FromDomain(c)
	return m
}
