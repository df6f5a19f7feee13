package gorm

// Customer is the schema model for the customers table.
type Customer struct {
	CustomerID         int64   `gorm:"column:customer_id;primaryKey;autoIncrement:false"`
	Name               *string `gorm:"column:name;type:varchar(255)"`
	Email              *string `gorm:"column:email;type:varchar(255)"`
	Address            *string `gorm:"column:address;type:varchar(255)"`
	PostalCode         *string `gorm:"column:postal_code;type:varchar(32)"`
	City               *string `gorm:"column:city;type:varchar(128)"`
	Contact            *string `gorm:"column:contact;type:varchar(255)"`
	TelephoneNumber    *string `gorm:"column:telephone_number;type:varchar(64)"`
	OrganizationNumber *string `gorm:"column:organization_number;type:varchar(32)"`
	CustomerNumber     *int64  `gorm:"column:customer_number"`
	PhoneNormalized    *string `gorm:"column:phone_normalized;type:varchar(32)"`
}

// TableName specifies the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// CustomerContactPerson is the schema model for customer_contact_persons.
// Composite key: a contact person id is only unique within its customer.
type CustomerContactPerson struct {
	CustomerID      int64   `gorm:"column:customer_id;primaryKey;autoIncrement:false"`
	ContactPersonID int64   `gorm:"column:contact_person_id;primaryKey;autoIncrement:false"`
	Name            *string `gorm:"column:name;type:varchar(255)"`
	TelephoneNumber *string `gorm:"column:telephone_number;type:varchar(64)"`
	Email           *string `gorm:"column:email;type:varchar(255)"`
	PhoneNormalized *string `gorm:"column:phone_normalized;type:varchar(32)"`
}

// TableName specifies the table name for GORM
func (CustomerContactPerson) TableName() string {
	return "customer_contact_persons"
}
