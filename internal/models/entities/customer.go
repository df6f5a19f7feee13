package entities

// CustomerRow is one business customer as stored in the customers table.
// All descriptive fields are overwritten wholesale on every sync; there is
// no merge-preserving behavior here, unlike machines.
type CustomerRow struct {
	CustomerID         int64   `db:"customer_id"`
	Name               *string `db:"name"`
	Email              *string `db:"email"`
	Address            *string `db:"address"`
	PostalCode         *string `db:"postal_code"`
	City               *string `db:"city"`
	Contact            *string `db:"contact"`
	TelephoneNumber    *string `db:"telephone_number"`
	OrganizationNumber *string `db:"organization_number"`
	CustomerNumber     *int64  `db:"customer_number"`
	PhoneNormalized    *string `db:"phone_normalized"`
}

// CustomerContactRow is one contact person owned by a customer. The full
// contact set for a customer is replaced atomically on every sync.
type CustomerContactRow struct {
	CustomerID      int64   `db:"customer_id"`
	ContactPersonID int64   `db:"contact_person_id"`
	Name            *string `db:"name"`
	TelephoneNumber *string `db:"telephone_number"`
	Email           *string `db:"email"`
	PhoneNormalized *string `db:"phone_normalized"`
}
