package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"bjugstad/fleetsync/internal/models/entities"
)

// CustomerRepository owns the customers and customer_contact_persons tables.
type CustomerRepository struct {
	db *sqlx.DB
}

func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerCols = 11

// UpsertCustomers bulk-upserts customer rows. Unlike machines there is no
// merge-preserving behavior: every non-key column is overwritten with the
// latest fetch, including to NULL.
func (r *CustomerRepository) UpsertCustomers(ctx context.Context, rows []entities.CustomerRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	values := make([]interface{}, 0, len(rows)*customerCols)
	placeholders := make([]string, 0, len(rows))

	for i, row := range rows {
		offset := i * customerCols
		values = append(values,
			row.CustomerID,
			row.Name,
			row.Email,
			row.Address,
			row.PostalCode,
			row.City,
			row.Contact,
			row.TelephoneNumber,
			row.OrganizationNumber,
			row.CustomerNumber,
			row.PhoneNormalized,
		)
		marks := make([]string, customerCols)
		for j := range marks {
			marks[j] = fmt.Sprintf("$%d", offset+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(marks, ", ")+")")
	}

	query := fmt.Sprintf(`
		INSERT INTO customers (
			customer_id, name, email, address, postal_code, city, contact,
			telephone_number, organization_number, customer_number, phone_normalized
		)
		VALUES %s
		ON CONFLICT (customer_id) DO UPDATE
		SET name = EXCLUDED.name,
		    email = EXCLUDED.email,
		    address = EXCLUDED.address,
		    postal_code = EXCLUDED.postal_code,
		    city = EXCLUDED.city,
		    contact = EXCLUDED.contact,
		    telephone_number = EXCLUDED.telephone_number,
		    organization_number = EXCLUDED.organization_number,
		    customer_number = EXCLUDED.customer_number,
		    phone_normalized = EXCLUDED.phone_normalized`,
		strings.Join(placeholders, ", "))

	res, err := r.db.ExecContext(ctx, query, values...)
	if err != nil {
		return 0, fmt.Errorf("customer upsert failed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return int64(len(rows)), nil
	}
	return affected, nil
}

// ReplaceCustomerContacts atomically replaces the contact set for the given
// customers: delete everything owned by those ids, then insert the current
// rows. Inserting zero rows is valid — a customer with no contacts left ends
// up with none stored. Any failure rolls back both halves.
func (r *CustomerRepository) ReplaceCustomerContacts(
	ctx context.Context,
	customerIDs []int64,
	rows []entities.CustomerContactRow,
) (int64, error) {
	if len(customerIDs) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("contact replace: begin failed: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM customer_contact_persons WHERE customer_id = ANY($1)`,
		pq.Array(customerIDs),
	); err != nil {
		return 0, fmt.Errorf("contact replace: delete failed: %w", err)
	}

	var inserted int64
	if len(rows) > 0 {
		const contactCols = 6
		values := make([]interface{}, 0, len(rows)*contactCols)
		placeholders := make([]string, 0, len(rows))

		for i, row := range rows {
			offset := i * contactCols
			values = append(values,
				row.CustomerID,
				row.ContactPersonID,
				row.Name,
				row.TelephoneNumber,
				row.Email,
				row.PhoneNormalized,
			)
			placeholders = append(placeholders, fmt.Sprintf(
				"($%d, $%d, $%d, $%d, $%d, $%d)",
				offset+1, offset+2, offset+3, offset+4, offset+5, offset+6,
			))
		}

		query := fmt.Sprintf(`
			INSERT INTO customer_contact_persons (
				customer_id, contact_person_id, name, telephone_number, email, phone_normalized
			)
			VALUES %s`,
			strings.Join(placeholders, ", "))

		res, err := tx.ExecContext(ctx, query, values...)
		if err != nil {
			return 0, fmt.Errorf("contact replace: insert failed: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted = n
		} else {
			inserted = int64(len(rows))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("contact replace: commit failed: %w", err)
	}
	return inserted, nil
}
