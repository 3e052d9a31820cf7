package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the database schema for the patient dashboard
func (db *DB) CreateSchema(ctx context.Context) error {
	db.logger.Info("Creating database schema...")

	if err := db.createExtensions(ctx); err != nil {
		return fmt.Errorf("failed to create extensions: %w", err)
	}

	tables := []string{
		createClinicsTable,
		createProfilesTable,
		createDealsTable,
		createContactsTable,
		createTicketsTable,
		createReturnTicketsTable,
		createVisasTable,
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		createProfilesIndexes,
		createDealsIndexes,
		createContactsIndexes,
		createTicketsIndexes,
		createReturnTicketsIndexes,
		createVisasIndexes,
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	functions := []string{
		createUpdateDealNotesFunction,
		createUpdateChinaEntryDateFunction,
	}

	for _, fn := range functions {
		if _, err := db.ExecContext(ctx, fn); err != nil {
			return fmt.Errorf("failed to create function: %w", err)
		}
	}

	db.logger.Info("Database schema created successfully")
	return nil
}

// createExtensions creates required PostgreSQL extensions
func (db *DB) createExtensions(ctx context.Context) error {
	extensions := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}

	for _, ext := range extensions {
		if _, err := db.ExecContext(ctx, ext); err != nil {
			return fmt.Errorf("failed to create extension: %w", err)
		}
	}

	return nil
}

// SQL DDL statements for table creation
const (
	createClinicsTable = `
		CREATE TABLE IF NOT EXISTS clinics (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name VARCHAR(255) UNIQUE NOT NULL,
			full_name VARCHAR(500),
			address_chinese TEXT,
			address_english TEXT,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createProfilesTable = `
		CREATE TABLE IF NOT EXISTS profiles (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			email VARCHAR(255) UNIQUE NOT NULL,
			full_name VARCHAR(255) NOT NULL DEFAULT '',
			role VARCHAR(50) NOT NULL DEFAULT 'coordinator',
			clinic_name VARCHAR(255) REFERENCES clinics(name),
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createDealsTable = `
		CREATE TABLE IF NOT EXISTS deals (
			id BIGINT PRIMARY KEY,
			lead_id BIGINT,
			deal_name VARCHAR(500) NOT NULL DEFAULT '',
			clinic_name VARCHAR(255) REFERENCES clinics(name),
			pipeline_name VARCHAR(255),
			status_name VARCHAR(255),
			deal_country VARCHAR(255),
			visa_city VARCHAR(255),
			notes TEXT,
			notes_updated_by UUID REFERENCES profiles(id),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createContactsTable = `
		CREATE TABLE IF NOT EXISTS contacts (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			deal_id BIGINT REFERENCES deals(id) ON DELETE CASCADE,
			amocrm_contact_id BIGINT,
			first_name VARCHAR(255),
			last_name VARCHAR(255),
			preferred_name VARCHAR(255),
			chinese_name VARCHAR(255),
			phone VARCHAR(100),
			email VARCHAR(255),
			birthday DATE,
			country VARCHAR(255),
			city VARCHAR(255),
			passport VARCHAR(100),
			"position" VARCHAR(255),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createTicketsTable = `
		CREATE TABLE IF NOT EXISTS tickets (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			deal_id BIGINT REFERENCES deals(id) ON DELETE CASCADE,
			arrival_datetime TIMESTAMP WITH TIME ZONE,
			arrival_transport_type VARCHAR(50),
			arrival_city VARCHAR(255),
			arrival_flight_number VARCHAR(50),
			arrival_terminal VARCHAR(50),
			departure_airport_code VARCHAR(10),
			passengers_count INTEGER,
			apartment_number VARCHAR(50),
			china_entry_date DATE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createReturnTicketsTable = `
		CREATE TABLE IF NOT EXISTS return_tickets (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			deal_id BIGINT REFERENCES deals(id) ON DELETE CASCADE,
			departure_transport_type VARCHAR(50),
			departure_city VARCHAR(255),
			departure_datetime TIMESTAMP WITH TIME ZONE,
			departure_flight_number VARCHAR(50),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createVisasTable = `
		CREATE TABLE IF NOT EXISTS visas (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			deal_id BIGINT REFERENCES deals(id) ON DELETE CASCADE,
			visa_type VARCHAR(100),
			visa_days INTEGER,
			visa_entries_count INTEGER,
			visa_corridor_start DATE,
			visa_corridor_end DATE,
			visa_expiry_date DATE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`
)

// SQL statements for index creation
const (
	createProfilesIndexes = `
		CREATE INDEX IF NOT EXISTS idx_profiles_role ON profiles(role);
		CREATE INDEX IF NOT EXISTS idx_profiles_clinic_name ON profiles(clinic_name);`

	createDealsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_deals_clinic_name ON deals(clinic_name);
		CREATE INDEX IF NOT EXISTS idx_deals_status_name ON deals(status_name);`

	createContactsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_contacts_deal_id ON contacts(deal_id);`

	createTicketsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_tickets_deal_id ON tickets(deal_id);
		CREATE INDEX IF NOT EXISTS idx_tickets_arrival_datetime ON tickets(arrival_datetime);`

	createReturnTicketsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_return_tickets_deal_id ON return_tickets(deal_id);`

	createVisasIndexes = `
		CREATE INDEX IF NOT EXISTS idx_visas_deal_id ON visas(deal_id);`
)

// SQL functions for gated single-field updates. Notes and the China
// entry date are updated through functions so that the updating user is
// recorded and the row's updated_at stays consistent.
const (
	createUpdateDealNotesFunction = `
		CREATE OR REPLACE FUNCTION update_deal_notes(p_deal_id BIGINT, p_notes TEXT, p_user_id UUID)
		RETURNS BOOLEAN AS $$
		BEGIN
			UPDATE deals
			SET notes = p_notes,
				notes_updated_by = p_user_id,
				updated_at = NOW()
			WHERE id = p_deal_id;
			RETURN FOUND;
		END;
		$$ LANGUAGE plpgsql;`

	createUpdateChinaEntryDateFunction = `
		CREATE OR REPLACE FUNCTION update_china_entry_date(p_deal_id BIGINT, p_entry_date DATE)
		RETURNS BOOLEAN AS $$
		BEGIN
			UPDATE tickets
			SET china_entry_date = p_entry_date,
				updated_at = NOW()
			WHERE deal_id = p_deal_id;
			RETURN FOUND;
		END;
		$$ LANGUAGE plpgsql;`
)
