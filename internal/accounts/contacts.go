package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/retail-orders/internal/database"
	"github.com/01moynul/retail-orders/internal/models"
)

const contactColumns = `id, client_id, first_name, last_name, patronymic, email, phone_number,
	city, street, house, building, structure, apartment`

func scanContact(row interface{ Scan(...any) error }, c *models.Contact) error {
	return row.Scan(&c.ID, &c.ClientID, &c.FirstName, &c.LastName, &c.Patronymic, &c.Email,
		&c.PhoneNumber, &c.City, &c.Street, &c.House, &c.Building, &c.Structure, &c.Apartment)
}

func (s *Store) ListContacts(ctx context.Context, clientID int64) ([]models.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE client_id = ? ORDER BY id", clientID)
	if err != nil {
		return nil, fmt.Errorf("accounts: list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		var c models.Contact
		if err := scanContact(rows, &c); err != nil {
			return nil, fmt.Errorf("accounts: scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (s *Store) GetContact(ctx context.Context, clientID, contactID int64) (*models.Contact, error) {
	var c models.Contact
	err := scanContact(s.db.QueryRowContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE id = ? AND client_id = ?", contactID, clientID), &c)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("accounts: get contact: %w", err)
	}
	return &c, nil
}

// CreateContact stores c for the client. A contact with the same field
// tuple already stored for that client is rejected with ErrContactExists.
func (s *Store) CreateContact(ctx context.Context, clientID int64, c *models.Contact) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts (client_id, first_name, last_name, patronymic, email, phone_number,
			city, street, house, building, structure, apartment, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		clientID, c.FirstName, c.LastName, c.Patronymic, c.Email, c.PhoneNumber,
		c.City, c.Street, c.House, c.Building, c.Structure, c.Apartment, c.Fingerprint())
	if database.IsMySQLError(err, database.ErrNumDuplicateEntry) {
		return ErrContactExists
	}
	if err != nil {
		return fmt.Errorf("accounts: create contact: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("accounts: create contact: %w", err)
	}
	c.ClientID = clientID
	return nil
}

func (s *Store) UpdateContact(ctx context.Context, clientID int64, c *models.Contact) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE contacts SET first_name = ?, last_name = ?, patronymic = ?, email = ?, phone_number = ?,
			city = ?, street = ?, house = ?, building = ?, structure = ?, apartment = ?, fingerprint = ?
		WHERE id = ? AND client_id = ?`,
		c.FirstName, c.LastName, c.Patronymic, c.Email, c.PhoneNumber,
		c.City, c.Street, c.House, c.Building, c.Structure, c.Apartment, c.Fingerprint(),
		c.ID, clientID)
	if database.IsMySQLError(err, database.ErrNumDuplicateEntry) {
		return ErrContactExists
	}
	if err != nil {
		return fmt.Errorf("accounts: update contact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("accounts: update contact: %w", err)
	}
	if n == 0 {
		return ErrContactNotFound
	}
	c.ClientID = clientID
	return nil
}

// DeleteContact removes the contact unless an order still points at it.
func (s *Store) DeleteContact(ctx context.Context, clientID, contactID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM contacts WHERE id = ? AND client_id = ?", contactID, clientID)
	if database.IsMySQLError(err, database.ErrNumRowIsReferenced) {
		return ErrContactInUse
	}
	if err != nil {
		return fmt.Errorf("accounts: delete contact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("accounts: delete contact: %w", err)
	}
	if n == 0 {
		return ErrContactNotFound
	}
	return nil
}
